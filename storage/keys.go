/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package storage

import (
	"strings"

	"github.com/jkufner/flupdo/machine"
)

const (
	KeyPrefixComponentsSeparator = ":"
	KeyPrefixIDSeparator         = "#"
)

// Here we keep the key definitions for the Redis collections.

// NewKeyForInstance machine:<machine:name>#<instance:id>
func NewKeyForInstance(machineName string, id machine.ID) string {
	prefix := strings.Join([]string{"machine", machineName}, KeyPrefixComponentsSeparator)
	return strings.Join([]string{prefix, id.String()}, KeyPrefixIDSeparator)
}

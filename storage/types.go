/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package storage

import (
	"context"
	"fmt"

	log "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/machine"
)

func Error(msg string) func(string) error {
	return func(key string) error {
		return fmt.Errorf(msg, key)
	}
}

var (
	IllegalStoreError = Error("error storing invalid data: %s")
	NotFoundError     = Error("instance %s not found")
)

// Record is what a provider holds for one instance: its current state and
// its property mapping. The state is part of the stored data, exactly as a
// storage-backed machine computes it from its backing row.
type Record struct {
	State      string         `json:"state"`
	Properties map[string]any `json:"properties"`
}

// Store is the read/write surface transition bodies (and tests) use; the
// engine itself only ever sees the narrower engine.StateProvider contract
// it embeds.
type Store interface {
	engine.StateProvider
	log.Loggable

	PutRecord(ctx context.Context, id machine.ID, record *Record) error
	DeleteRecord(ctx context.Context, id machine.ID) error
	Health() error
}

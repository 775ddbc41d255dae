/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package storage

import (
	"context"
	"sync"

	slf4go "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/machine"
)

// MemoryProvider keeps instance records in a mutex-guarded map; it backs
// tests and single-process deployments.
type MemoryProvider struct {
	logger       *slf4go.Log
	mux          sync.RWMutex
	backingStore map[string]*Record
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		logger:       slf4go.NewLog("MemoryProvider"),
		backingStore: make(map[string]*Record),
	}
}

func (csm *MemoryProvider) SetLogLevel(level slf4go.LogLevel) {
	csm.logger.Level = level
}

// GetState returns the empty state both for an empty ID and for an unknown
// one: a nonexistent instance is simply not created yet, never an error.
func (csm *MemoryProvider) GetState(_ context.Context, id machine.ID) (string, error) {
	if id.IsEmpty() {
		return "", nil
	}
	csm.mux.RLock()
	defer csm.mux.RUnlock()
	record, found := csm.backingStore[id.String()]
	csm.logger.Trace("state lookup for [%s] - found: %t", id, found)
	if !found {
		return "", nil
	}
	return record.State, nil
}

func (csm *MemoryProvider) GetProperties(_ context.Context, id machine.ID) (map[string]any, error) {
	csm.mux.RLock()
	defer csm.mux.RUnlock()
	record, found := csm.backingStore[id.String()]
	if !found {
		return nil, NotFoundError(id.String())
	}
	properties := make(map[string]any, len(record.Properties))
	for name, value := range record.Properties {
		properties[name] = value
	}
	return properties, nil
}

func (csm *MemoryProvider) PutRecord(_ context.Context, id machine.ID, record *Record) error {
	if id.IsEmpty() || record == nil {
		return IllegalStoreError(id.String())
	}
	csm.mux.Lock()
	defer csm.mux.Unlock()
	csm.logger.Trace("storing [%s] in state %q", id, record.State)
	csm.backingStore[id.String()] = record
	return nil
}

func (csm *MemoryProvider) DeleteRecord(_ context.Context, id machine.ID) error {
	csm.mux.Lock()
	defer csm.mux.Unlock()
	delete(csm.backingStore, id.String())
	return nil
}

func (csm *MemoryProvider) Health() error {
	return nil
}

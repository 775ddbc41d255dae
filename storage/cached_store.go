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

// CachedProvider is a read-through cache over another Store. The engine
// never caches across invocations itself; a provider that does must own the
// invalidation, which is what FlushCache and FlushInstance are for. Writes
// through this provider invalidate the affected entry; writes that bypass
// it are only observed after a flush.
type CachedProvider struct {
	logger   *slf4go.Log
	delegate Store

	mux   sync.RWMutex
	cache map[string]*Record
}

func NewCachedProvider(delegate Store) *CachedProvider {
	return &CachedProvider{
		logger:   slf4go.NewLog("CachedProvider"),
		delegate: delegate,
		cache:    make(map[string]*Record),
	}
}

func (csm *CachedProvider) SetLogLevel(level slf4go.LogLevel) {
	csm.logger.Level = level
}

func (csm *CachedProvider) cached(id machine.ID) (*Record, bool) {
	csm.mux.RLock()
	defer csm.mux.RUnlock()
	record, found := csm.cache[id.String()]
	return record, found
}

// load fetches the record from the delegate and caches it; a missing
// instance is not cached (it may be created at any moment).
func (csm *CachedProvider) load(ctx context.Context, id machine.ID) (*Record, error) {
	state, err := csm.delegate.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == "" {
		return nil, nil
	}
	properties, err := csm.delegate.GetProperties(ctx, id)
	if err != nil {
		return nil, err
	}
	record := &Record{State: state, Properties: properties}
	csm.mux.Lock()
	csm.cache[id.String()] = record
	csm.mux.Unlock()
	return record, nil
}

func (csm *CachedProvider) GetState(ctx context.Context, id machine.ID) (string, error) {
	if id.IsEmpty() {
		return "", nil
	}
	if record, found := csm.cached(id); found {
		return record.State, nil
	}
	record, err := csm.load(ctx, id)
	if err != nil || record == nil {
		return "", err
	}
	return record.State, nil
}

func (csm *CachedProvider) GetProperties(ctx context.Context, id machine.ID) (map[string]any, error) {
	if record, found := csm.cached(id); found {
		return record.Properties, nil
	}
	record, err := csm.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, NotFoundError(id.String())
	}
	return record.Properties, nil
}

func (csm *CachedProvider) PutRecord(ctx context.Context, id machine.ID, record *Record) error {
	if err := csm.delegate.PutRecord(ctx, id, record); err != nil {
		return err
	}
	csm.FlushInstance(id)
	return nil
}

func (csm *CachedProvider) DeleteRecord(ctx context.Context, id machine.ID) error {
	if err := csm.delegate.DeleteRecord(ctx, id); err != nil {
		return err
	}
	csm.FlushInstance(id)
	return nil
}

// FlushInstance invalidates the cached record for one instance.
func (csm *CachedProvider) FlushInstance(id machine.ID) {
	csm.mux.Lock()
	defer csm.mux.Unlock()
	delete(csm.cache, id.String())
}

// FlushCache invalidates every cached record.
func (csm *CachedProvider) FlushCache() {
	csm.mux.Lock()
	defer csm.mux.Unlock()
	csm.logger.Debug("flushing %d cached records", len(csm.cache))
	csm.cache = make(map[string]*Record)
}

func (csm *CachedProvider) Health() error {
	return csm.delegate.Health()
}

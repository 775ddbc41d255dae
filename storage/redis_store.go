/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	slf4go "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/machine"
)

const (
	NeverExpire       = 0
	DefaultRedisPort  = "6379"
	DefaultRedisDb    = 0
	DefaultMaxRetries = 3
	DefaultTimeout    = 200 * time.Millisecond
)

// RedisProvider stores one JSON-encoded Record per instance, scoped to a
// machine type via the key prefix.
type RedisProvider struct {
	logger      *slf4go.Log
	client      *redis.Client
	machineName string
	Timeout     time.Duration
	MaxRetries  int
}

func NewRedisProviderWithDefaults(address string, machineName string) *RedisProvider {
	return NewRedisProvider(address, DefaultRedisDb, machineName, DefaultTimeout,
		DefaultMaxRetries)
}

func NewRedisProvider(address string, db int, machineName string, timeout time.Duration,
	maxRetries int) *RedisProvider {
	logger := slf4go.NewLog(fmt.Sprintf("redis://%s/%d", address, db))
	var tlsConfig *tls.Config
	if os.Getenv("REDIS_TLS") != "" {
		logger.Info("Using TLS for Redis connection")
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &RedisProvider{
		logger: logger,
		client: redis.NewClient(&redis.Options{
			TLSConfig: tlsConfig,
			Addr:      address,
			DB:        db, // 0 means default DB
		}),
		machineName: machineName,
		Timeout:     timeout,
		MaxRetries:  maxRetries,
	}
}

func (csm *RedisProvider) SetLogLevel(level slf4go.LogLevel) {
	csm.logger.Level = level
}

func (csm *RedisProvider) SetTimeout(duration time.Duration) {
	csm.Timeout = duration
}

func (csm *RedisProvider) GetState(ctx context.Context, id machine.ID) (string, error) {
	if id.IsEmpty() {
		return "", nil
	}
	record, err := csm.get(ctx, NewKeyForInstance(csm.machineName, id))
	if err == redis.Nil {
		// Not an error: an unknown instance has the empty state.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.State, nil
}

func (csm *RedisProvider) GetProperties(ctx context.Context, id machine.ID) (map[string]any, error) {
	record, err := csm.get(ctx, NewKeyForInstance(csm.machineName, id))
	if err == redis.Nil {
		return nil, NotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}
	return record.Properties, nil
}

func (csm *RedisProvider) PutRecord(ctx context.Context, id machine.ID, record *Record) error {
	if id.IsEmpty() || record == nil {
		return IllegalStoreError(id.String())
	}
	return csm.put(ctx, NewKeyForInstance(csm.machineName, id), record)
}

func (csm *RedisProvider) DeleteRecord(ctx context.Context, id machine.ID) error {
	timed, cancel := context.WithTimeout(ctx, csm.Timeout)
	defer cancel()
	return csm.client.Del(timed, NewKeyForInstance(csm.machineName, id)).Err()
}

// get abstracts away the common functionality of looking for a key in
// Redis, with a given timeout and a number of retries.
func (csm *RedisProvider) get(ctx context.Context, key string) (*Record, error) {
	attemptsLeft := csm.MaxRetries
	csm.logger.Trace("Looking up key `%s` (Max retries: %d)", key, attemptsLeft)
	for {
		timed, cancel := context.WithTimeout(ctx, csm.Timeout)
		attemptsLeft--
		data, err := csm.client.Get(timed, key).Bytes()
		cancel()
		if err == redis.Nil {
			// The key isn't there, no point in retrying.
			csm.logger.Debug("Key `%s` not found", key)
			return nil, err
		} else if err != nil {
			if timed.Err() == context.DeadlineExceeded && attemptsLeft > 0 {
				csm.logger.Trace("retrying after timeout, attempts left: %d", attemptsLeft)
				csm.wait()
				continue
			}
			csm.logger.Error(err.Error())
			return nil, err
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}
		return &record, nil
	}
}

func (csm *RedisProvider) put(ctx context.Context, key string, record *Record) error {
	attemptsLeft := csm.MaxRetries
	csm.logger.Trace("Storing key `%s` (Max retries: %d)", key, attemptsLeft)
	data, err := json.Marshal(record)
	if err != nil {
		csm.logger.Error("cannot encode record: %q", err)
		return err
	}
	for {
		timed, cancel := context.WithTimeout(ctx, csm.Timeout)
		attemptsLeft--
		err := csm.client.Set(timed, key, data, NeverExpire).Err()
		cancel()
		if err != nil {
			if timed.Err() == context.DeadlineExceeded && attemptsLeft > 0 {
				csm.logger.Trace("retrying after timeout, attempts left: %d", attemptsLeft)
				csm.wait()
				continue
			}
			csm.logger.Error(err.Error())
			return err
		}
		return nil
	}
}

func (csm *RedisProvider) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), csm.Timeout)
	defer cancel()
	if err := csm.client.Ping(ctx).Err(); err != nil {
		csm.logger.Error("Error pinging redis: %s", err.Error())
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// wait sleeps for a random amount of time up to half a second between
// retries.
//
// TODO: should use some form of exponential backoff
func (csm *RedisProvider) wait() {
	time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
}

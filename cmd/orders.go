/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/machine"
	"github.com/jkufner/flupdo/storage"
)

// OrdersRegistry binds the transition methods of the demo `orders` machine
// (see data/orders.yaml) to a backing store. The state lives in the stored
// record, so each method both mutates the properties and moves the state.
func OrdersRegistry(store storage.Store) engine.Registry {
	return engine.Registry{
		"createOrder": func(ctx context.Context, _ machine.ID, args []any) (any, error) {
			id := machine.NewID(uuid.New().String())
			properties := map[string]any{"created_at": time.Now().Format(time.RFC3339)}
			if len(args) > 0 {
				if custom, ok := args[0].(map[string]any); ok {
					for name, value := range custom {
						properties[name] = value
					}
				}
			}
			err := store.PutRecord(ctx, id, &storage.Record{
				State:      "pending",
				Properties: properties,
			})
			if err != nil {
				return nil, err
			}
			return id, nil
		},
		"ship": func(ctx context.Context, id machine.ID, args []any) (any, error) {
			return true, updateOrder(ctx, store, id, "shipped", map[string]any{
				"shipped_at": time.Now().Format(time.RFC3339),
			})
		},
		"cancel": func(ctx context.Context, id machine.ID, args []any) (any, error) {
			reason := ""
			if len(args) > 0 {
				reason = fmt.Sprint(args[0])
			}
			return reason, updateOrder(ctx, store, id, "cancelled", map[string]any{
				"cancel_reason": reason,
			})
		},
		"archive": func(ctx context.Context, id machine.ID, args []any) (any, error) {
			return true, store.DeleteRecord(ctx, id)
		},
	}
}

func updateOrder(ctx context.Context, store storage.Store, id machine.ID, state string,
	changes map[string]any) error {
	properties, err := store.GetProperties(ctx, id)
	if err != nil {
		return err
	}
	for name, value := range changes {
		properties[name] = value
	}
	return store.PutRecord(ctx, id, &storage.Record{State: state, Properties: properties})
}

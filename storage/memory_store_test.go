/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package storage_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/jkufner/flupdo/machine"
	. "github.com/jkufner/flupdo/storage"
)

var _ = Describe("MemoryProvider", func() {
	var (
		ctx   context.Context
		store *MemoryProvider
		id    machine.ID
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = NewMemoryProvider()
		id = machine.NewID("42")
	})

	It("reports the empty state for an empty id", func() {
		state, err := store.GetState(ctx, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("reports the empty state, not an error, for an unknown id", func() {
		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("fails to resolve properties for an unknown id", func() {
		_, err := store.GetProperties(ctx, id)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("42"))
	})
	It("stores and resolves records", func() {
		err := store.PutRecord(ctx, id, &Record{
			State:      "pending",
			Properties: map[string]any{"total": 99},
		})
		Expect(err).ToNot(HaveOccurred())

		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(Equal("pending"))

		properties, err := store.GetProperties(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(properties).To(HaveKeyWithValue("total", 99))
	})
	It("returns a copy of the properties, not the live map", func() {
		Expect(store.PutRecord(ctx, id, &Record{
			State:      "pending",
			Properties: map[string]any{"total": 99},
		})).To(Succeed())

		properties, _ := store.GetProperties(ctx, id)
		properties["total"] = 0
		again, _ := store.GetProperties(ctx, id)
		Expect(again).To(HaveKeyWithValue("total", 99))
	})
	It("refuses to store invalid data", func() {
		Expect(store.PutRecord(ctx, nil, &Record{State: "x"})).To(HaveOccurred())
		Expect(store.PutRecord(ctx, id, nil)).To(HaveOccurred())
	})
	It("forgets deleted records", func() {
		Expect(store.PutRecord(ctx, id, &Record{State: "pending"})).To(Succeed())
		Expect(store.DeleteRecord(ctx, id)).To(Succeed())

		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("is always healthy", func() {
		Expect(store.Health()).To(Succeed())
	})
})

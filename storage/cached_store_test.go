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

var _ = Describe("CachedProvider", func() {
	var (
		ctx      context.Context
		delegate *MemoryProvider
		store    *CachedProvider
		id       machine.ID
	)

	BeforeEach(func() {
		ctx = context.Background()
		delegate = NewMemoryProvider()
		store = NewCachedProvider(delegate)
		id = machine.NewID("42")
		Expect(delegate.PutRecord(ctx, id, &Record{
			State:      "pending",
			Properties: map[string]any{"total": 99},
		})).To(Succeed())
	})

	It("reads through to the delegate", func() {
		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(Equal("pending"))

		properties, err := store.GetProperties(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(properties).To(HaveKeyWithValue("total", 99))
	})
	It("serves stale reads after a write that bypasses it", func() {
		state, _ := store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))

		Expect(delegate.PutRecord(ctx, id, &Record{State: "shipped"})).To(Succeed())
		state, _ = store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))
	})
	It("observes bypassing writes after FlushCache", func() {
		state, _ := store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))

		Expect(delegate.PutRecord(ctx, id, &Record{State: "shipped"})).To(Succeed())
		store.FlushCache()
		state, _ = store.GetState(ctx, id)
		Expect(state).To(Equal("shipped"))
	})
	It("observes bypassing writes after FlushInstance", func() {
		state, _ := store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))

		Expect(delegate.PutRecord(ctx, id, &Record{State: "shipped"})).To(Succeed())
		store.FlushInstance(id)
		state, _ = store.GetState(ctx, id)
		Expect(state).To(Equal("shipped"))
	})
	It("only flushes the given instance", func() {
		other := machine.NewID("43")
		Expect(delegate.PutRecord(ctx, other, &Record{State: "pending"})).To(Succeed())
		_, _ = store.GetState(ctx, id)
		_, _ = store.GetState(ctx, other)

		Expect(delegate.PutRecord(ctx, id, &Record{State: "shipped"})).To(Succeed())
		Expect(delegate.PutRecord(ctx, other, &Record{State: "shipped"})).To(Succeed())
		store.FlushInstance(other)

		state, _ := store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))
		state, _ = store.GetState(ctx, other)
		Expect(state).To(Equal("shipped"))
	})
	It("invalidates on writes through itself", func() {
		state, _ := store.GetState(ctx, id)
		Expect(state).To(Equal("pending"))

		Expect(store.PutRecord(ctx, id, &Record{State: "shipped"})).To(Succeed())
		state, _ = store.GetState(ctx, id)
		Expect(state).To(Equal("shipped"))
	})
	It("invalidates on deletes through itself", func() {
		_, _ = store.GetState(ctx, id)
		Expect(store.DeleteRecord(ctx, id)).To(Succeed())

		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("does not cache missing instances", func() {
		missing := machine.NewID("99")
		state, err := store.GetState(ctx, missing)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())

		Expect(delegate.PutRecord(ctx, missing, &Record{State: "pending"})).To(Succeed())
		state, _ = store.GetState(ctx, missing)
		Expect(state).To(Equal("pending"))
	})
	It("delegates the health check", func() {
		Expect(store.Health()).To(Succeed())
	})
})

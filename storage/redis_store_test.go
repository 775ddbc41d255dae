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

var _ = Describe("RedisProvider", func() {
	var (
		ctx   context.Context
		store *RedisProvider
		id    machine.ID
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = NewRedisProviderWithDefaults(container.Address, "orders")
		Expect(store).ToNot(BeNil())
		id = machine.NewID("order", "42")
	})
	AfterEach(func() {
		Expect(store.DeleteRecord(ctx, id)).To(Succeed())
	})

	It("can connect", func() {
		Expect(store.Health()).To(Succeed())
	})
	It("reports the empty state for a missing key", func() {
		state, err := store.GetState(ctx, machine.NewID("no-such-order"))
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("round-trips a record", func() {
		Expect(store.PutRecord(ctx, id, &Record{
			State:      "shipped",
			Properties: map[string]any{"carrier": "UPS"},
		})).To(Succeed())

		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(Equal("shipped"))

		properties, err := store.GetProperties(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(properties).To(HaveKeyWithValue("carrier", "UPS"))
	})
	It("fails to resolve properties for a missing key", func() {
		_, err := store.GetProperties(ctx, machine.NewID("no-such-order"))
		Expect(err).To(HaveOccurred())
	})
	It("refuses to store a record without an id", func() {
		Expect(store.PutRecord(ctx, nil, &Record{State: "pending"})).To(HaveOccurred())
	})
	It("keeps machine types apart", func() {
		other := NewRedisProviderWithDefaults(container.Address, "invoices")
		Expect(store.PutRecord(ctx, id, &Record{State: "pending"})).To(Succeed())

		state, err := other.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
	It("deletes records", func() {
		Expect(store.PutRecord(ctx, id, &Record{State: "pending"})).To(Succeed())
		Expect(store.DeleteRecord(ctx, id)).To(Succeed())

		state, err := store.GetState(ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(state).To(BeEmpty())
	})
})

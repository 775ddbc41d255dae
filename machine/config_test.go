/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package machine_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/jkufner/flupdo/machine"
)

var _ = Describe("Machine definitions in YAML", func() {
	var orders string

	BeforeEach(func() {
		orders = `
name: orders
states:
  pending: {label: Pending, color: "#ffd479"}
  shipped: {label: Shipped}
  cancelled:
actions:
  create:
    label: Create order
    returns: new_id
    transitions:
      "":
        targets: [pending]
        method: createOrder
  ship:
    transitions:
      pending:
        targets: [shipped]
        permissions: {role: staff}
  cancel:
    transitions:
      pending: {targets: [cancelled]}
`
	})

	Context("with a well-formed document", func() {
		It("can be parsed without errors", func() {
			def, err := LoadDefinition([]byte(orders))
			Expect(err).ToNot(HaveOccurred())
			Expect(def.Name()).To(Equal("orders"))
		})
		It("preserves the document's mapping order", func() {
			def, err := LoadDefinition([]byte(orders))
			Expect(err).ToNot(HaveOccurred())
			Expect(def.StateNames()).To(Equal([]string{"pending", "shipped", "cancelled"}))
			Expect(def.ActionNames()).To(Equal([]string{"create", "ship", "cancel"}))
		})
		It("decodes labels, colors, methods and return kinds", func() {
			def, _ := LoadDefinition([]byte(orders))

			pending, found := def.StateByName("pending")
			Expect(found).To(BeTrue())
			Expect(pending.Label).To(Equal("Pending"))
			Expect(pending.Color).To(Equal("#ffd479"))

			create, found := def.ActionByName("create")
			Expect(found).To(BeTrue())
			Expect(create.Returns).To(Equal(ReturnsNewID))
			Expect(create.Transitions[""].Method).To(Equal("createOrder"))
		})
		It("keeps permission payloads opaque", func() {
			def, _ := LoadDefinition([]byte(orders))
			ship, _ := def.ActionByName("ship")
			Expect(ship.Transitions["pending"].Permissions).To(
				Equal(map[string]any{"role": "staff"}))
		})
		It("accepts states declared with no metadata at all", func() {
			def, _ := LoadDefinition([]byte(orders))
			cancelled, found := def.StateByName("cancelled")
			Expect(found).To(BeTrue())
			Expect(cancelled.DisplayLabel()).To(Equal("cancelled"))
		})
	})

	Context("reading from the filesystem", func() {
		var dir string

		BeforeEach(func() {
			// Ginkgo v1's GinkgoT().TempDir() is a no-op returning "".
			var err error
			dir, err = os.MkdirTemp("", "flupdo-config-test")
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(filepath.Join(dir, "orders.yaml"),
				[]byte(orders), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "articles.yml"), []byte(`
name: articles
actions:
  create:
    transitions:
      "": {targets: [draft]}
`), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "notes.txt"),
				[]byte("not a definition"), 0644)).To(Succeed())
		})

		AfterEach(func() {
			Expect(os.RemoveAll(dir)).To(Succeed())
		})

		It("loads a single definition file", func() {
			def, err := ReadDefinitionFile(filepath.Join(dir, "orders.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(def.Name()).To(Equal("orders"))
		})
		It("names the offending file on failure", func() {
			path := filepath.Join(dir, "broken.yaml")
			Expect(os.WriteFile(path, []byte("name: x\n"), 0644)).To(Succeed())
			_, err := ReadDefinitionFile(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("broken.yaml"))
		})
		It("loads every definition in a directory, in filename order", func() {
			defs, err := ReadDefinitionDir(dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(defs).To(HaveLen(2))
			Expect(defs[0].Name()).To(Equal("articles"))
			Expect(defs[1].Name()).To(Equal("orders"))
		})
	})

	Context("with a malformed document", func() {
		It("fails on invalid YAML", func() {
			_, err := LoadDefinition([]byte("{not yaml"))
			Expect(err).To(MatchError(MalformedDefinitionError))
		})
		It("fails when actions is not a mapping", func() {
			_, err := LoadDefinition([]byte("name: x\nactions: [a, b]\n"))
			Expect(err).To(MatchError(MalformedDefinitionError))
		})
		It("fails on a missing targets list", func() {
			_, err := LoadDefinition([]byte(`
name: x
actions:
  go:
    transitions:
      "": {method: start}
`))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("go"))
		})
		It("fails on an unknown return kind", func() {
			_, err := LoadDefinition([]byte(`
name: x
actions:
  go:
    returns: sometimes
    transitions:
      "": {targets: [done]}
`))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("sometimes"))
		})
		It("fails on a missing action set", func() {
			_, err := LoadDefinition([]byte("name: x\n"))
			Expect(err).To(MatchError(MissingActionsError))
		})
	})
})

/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package machine_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/jkufner/flupdo/machine"
)

func draftArticle() ([]State, []*Action) {
	states := []State{
		{Name: "draft", Label: "Draft"},
		{Name: "published", Label: "Published", Color: "#a8d08d"},
	}
	actions := []*Action{
		{
			Name:    "create",
			Returns: ReturnsNewID,
			Transitions: map[string]*Transition{
				"": {Targets: []string{"draft"}},
			},
			SourceOrder: []string{""},
		},
		{
			Name: "publish",
			Transitions: map[string]*Transition{
				"draft": {Targets: []string{"published"}},
			},
			SourceOrder: []string{"draft"},
		},
	}
	return states, actions
}

var _ = Describe("Machine definitions", func() {
	Context("when well formed", func() {
		var def *Definition

		BeforeEach(func() {
			states, actions := draftArticle()
			var err error
			def, err = NewDefinition("articles", states, actions)
			Expect(err).ToNot(HaveOccurred())
		})

		It("preserves declaration order", func() {
			Expect(def.StateNames()).To(Equal([]string{"draft", "published"}))
			Expect(def.ActionNames()).To(Equal([]string{"create", "publish"}))
		})
		It("resolves states and actions by name", func() {
			s, found := def.StateByName("published")
			Expect(found).To(BeTrue())
			Expect(s.DisplayLabel()).To(Equal("Published"))

			a, found := def.ActionByName("publish")
			Expect(found).To(BeTrue())
			Expect(a.Returns).To(Equal(ReturnsValue))
		})
		It("always resolves the empty state, even undeclared", func() {
			s, found := def.StateByName("")
			Expect(found).To(BeTrue())
			Expect(s.Name).To(BeEmpty())
		})
		It("yields an explicit absent value for unknown names", func() {
			_, found := def.StateByName("nonesuch")
			Expect(found).To(BeFalse())
			_, found = def.ActionByName("nonesuch")
			Expect(found).To(BeFalse())
		})
		It("defaults the bound method to the action name", func() {
			a, _ := def.ActionByName("publish")
			Expect(a.Transitions["draft"].Method).To(Equal("publish"))
		})
		It("lists referenced states in first-reference order", func() {
			Expect(def.ReferencedStates()).To(Equal([]string{"draft", "published"}))
		})
	})

	Context("when malformed", func() {
		It("requires a name", func() {
			states, actions := draftArticle()
			_, err := NewDefinition("", states, actions)
			Expect(err).To(MatchError(MissingNameError))
		})
		It("requires at least one action", func() {
			states, _ := draftArticle()
			_, err := NewDefinition("articles", states, nil)
			Expect(err).To(MatchError(MissingActionsError))
		})
		It("rejects duplicate states", func() {
			states, actions := draftArticle()
			states = append(states, State{Name: "draft"})
			_, err := NewDefinition("articles", states, actions)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("draft"))
		})
		It("rejects a transition without targets", func() {
			states, actions := draftArticle()
			actions[1].Transitions["draft"].Targets = nil
			_, err := NewDefinition("articles", states, actions)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("publish[draft]"))
		})
	})

	Describe("Transitions", func() {
		It("match their declared targets", func() {
			t := Transition{Targets: []string{"published", ""}}
			Expect(t.HasTarget("published")).To(BeTrue())
			Expect(t.HasTarget("")).To(BeTrue())
			Expect(t.HasTarget("draft")).To(BeFalse())
		})
	})

	Describe("Instance IDs", func() {
		It("round-trip through their canonical form", func() {
			id := NewID("42", "cz")
			Expect(id.String()).To(Equal("42#cz"))
			Expect(ParseID("42#cz")).To(Equal(id))
		})
		It("treat nil and empty alike", func() {
			Expect(NewID().IsEmpty()).To(BeTrue())
			Expect(ParseID("")).To(BeNil())
			Expect(NewID("42").IsEmpty()).To(BeFalse())
		})
	})

	Describe("Return kinds", func() {
		It("parse the configuration forms", func() {
			kind, err := ParseReturnKind("")
			Expect(err).ToNot(HaveOccurred())
			Expect(kind).To(Equal(ReturnsValue))

			kind, err = ParseReturnKind("new_id")
			Expect(err).ToNot(HaveOccurred())
			Expect(kind).To(Equal(ReturnsNewID))
		})
		It("reject unknown tags rather than defaulting", func() {
			_, err := ParseReturnKind("maybe")
			Expect(err).To(HaveOccurred())
		})
	})
})

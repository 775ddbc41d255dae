/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

// Package graph renders a machine definition as a Graphviz DOT digraph:
// one node per state, one labeled edge per (action, source, target) triple,
// a synthetic BEGIN node for creation transitions and a synthetic END node
// for transitions with an empty target. The output is deterministic, so it
// can be snapshot-tested and diffed.
package graph

import (
	"bytes"
	"fmt"

	"github.com/jkufner/flupdo/machine"
)

const (
	// The synthetic entry/exit nodes get reserved-looking identifiers so a
	// machine with a declared state named BEGIN or END cannot collide with
	// them.
	beginNode = "__BEGIN__"
	endNode   = "__END__"

	// DefaultFill is used for declared states without a color of their own;
	// UndefinedFill marks states referenced by a transition but missing
	// from the declared state set. An inconsistent definition is surfaced
	// visually, never as an export failure.
	DefaultFill   = "#eeeeee"
	UndefinedFill = "#ffccaa"
)

// Export renders the definition as DOT text. Identical definitions yield
// byte-identical output: states, actions and their transitions are walked
// in declaration order.
func Export(def *machine.Definition) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", def.Name())
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=filled];\n")

	declared := make(map[string]bool)
	for _, s := range def.States() {
		declared[s.Name] = true
		color := s.Color
		if color == "" {
			color = DefaultFill
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n",
			s.Name, s.DisplayLabel(), color)
	}
	for _, name := range def.ReferencedStates() {
		if !declared[name] {
			fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n",
				name, name, UndefinedFill)
		}
	}

	fmt.Fprintf(&buf, "  %q [shape=circle, style=filled, fillcolor=\"#000000\", label=\"\"];\n",
		beginNode)
	if hasEndEdge(def) {
		fmt.Fprintf(&buf, "  %q [shape=doublecircle, style=filled, fillcolor=\"#000000\", label=\"\"];\n",
			endNode)
	}

	for _, action := range def.Actions() {
		for _, src := range action.SourceOrder {
			from := src
			if from == "" {
				from = beginNode
			}
			transition := action.Transitions[src]
			for _, target := range transition.Targets {
				to := target
				if to == "" {
					to = endNode
				}
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n",
					from, to, action.DisplayLabel())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// hasEndEdge reports whether any transition targets the empty state; only
// then is the synthetic END node emitted.
func hasEndEdge(def *machine.Definition) bool {
	for _, action := range def.Actions() {
		for _, src := range action.SourceOrder {
			for _, target := range action.Transitions[src].Targets {
				if target == "" {
					return true
				}
			}
		}
	}
	return false
}

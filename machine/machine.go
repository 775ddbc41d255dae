/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package machine

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// IDSeparator joins the components of a compound ID into its
	// canonical string form (also used for storage keys and logs).
	IDSeparator = "#"
)

var (
	MissingNameError = fmt.Errorf(
		"a machine definition must always specify a name")
	MissingActionsError = fmt.Errorf(
		"a machine definition must declare at least one action")
	MalformedDefinitionError = fmt.Errorf("this machine definition cannot be parsed")
)

// Error returns a factory for parameterized errors; see the `Duplicate*Error`
// vars below for typical usage.
func Error(msg string) func(string) error {
	return func(detail string) error {
		return fmt.Errorf(msg, detail)
	}
}

var (
	DuplicateStateError  = Error("state %s is declared more than once")
	DuplicateActionError = Error("action %s is declared more than once")
	EmptyTargetsError    = Error("transition %s declares no target states")
	BadReturnKindError   = Error("unknown return kind %s")
)

// ID identifies one entity instance tracked by a machine type; it is opaque
// to the engine and may be compound (several primary-key components).
// A nil or empty ID denotes an instance that does not exist yet.
type ID []string

func NewID(components ...string) ID {
	return ID(components)
}

// ParseID is the inverse of ID.String.
func ParseID(s string) ID {
	if s == "" {
		return nil
	}
	return ID(strings.Split(s, IDSeparator))
}

func (id ID) IsEmpty() bool {
	return len(id) == 0
}

func (id ID) String() string {
	return strings.Join(id, IDSeparator)
}

// ReturnKind tags how the engine interprets the value returned by a
// transition method.
type ReturnKind int8

const (
	// ReturnsValue passes the method's return value through unchanged.
	ReturnsValue ReturnKind = iota
	// ReturnsNewID makes the method's return value the new instance ID;
	// used by creation transitions, where no ID exists beforehand.
	ReturnsNewID
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnsValue:
		return "value"
	case ReturnsNewID:
		return "new_id"
	default:
		return fmt.Sprintf("ReturnKind(%d)", k)
	}
}

// ParseReturnKind maps the configuration form of the tag; the empty string
// is the documented default (`value`).
func ParseReturnKind(s string) (ReturnKind, error) {
	switch s {
	case "", "value":
		return ReturnsValue, nil
	case "new_id":
		return ReturnsNewID, nil
	default:
		return ReturnsValue, BadReturnKindError(s)
	}
}

// State is a named condition an instance can occupy. The empty name is the
// implicit "not yet created" state and always exists, declared or not.
type State struct {
	Name        string `json:"name" yaml:"-"`
	Label       string `json:"label,omitempty" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description"`
	Color       string `json:"color,omitempty" yaml:"color"`
}

// DisplayLabel is the label to use when rendering the state.
func (s State) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Transition binds one (action, source state) pair to an implementation
// method, the set of legal target states and an optional permission
// requirement. The Permissions value is opaque to the engine; only the
// PermissionChecker hook interprets it.
type Transition struct {
	Targets     []string `json:"targets"`
	Method      string   `json:"method,omitempty"`
	Permissions any      `json:"permissions,omitempty"`
}

// HasTarget reports whether `state` is one of the declared legal outcomes.
func (t *Transition) HasTarget(state string) bool {
	for _, target := range t.Targets {
		if target == state {
			return true
		}
	}
	return false
}

// Action is a named operation an external caller may request, realized as
// one transition per legal source state.
type Action struct {
	Name        string
	Label       string
	Description string
	// Returns tells the engine how to interpret the bound method's return
	// value; it is a property of the action, not of individual transitions.
	Returns     ReturnKind
	Transitions map[string]*Transition

	// SourceOrder fixes the iteration order over Transitions; it is filled
	// (sorted) by NewDefinition when the caller leaves it empty.
	SourceOrder []string
}

// DisplayLabel is the label to use when rendering the action.
func (a *Action) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Name
}

// TransitionFrom returns the transition legal from the given source state.
func (a *Action) TransitionFrom(state string) (*Transition, bool) {
	t, ok := a.Transitions[state]
	return t, ok
}

// Definition is the immutable, shared-per-type description of a machine:
// its states, its actions and their transitions. It is constructed once at
// registration time and never mutated afterwards, so concurrent readers
// need no locking.
type Definition struct {
	name        string
	states      map[string]State
	stateOrder  []string
	actions     map[string]*Action
	actionOrder []string
}

// NewDefinition validates the declarative description and freezes it.
// Declaration order of both states and actions is preserved: it drives the
// ordering of reflection queries and of the exported graph.
func NewDefinition(name string, states []State, actions []*Action) (*Definition, error) {
	if name == "" {
		return nil, MissingNameError
	}
	if len(actions) == 0 {
		return nil, MissingActionsError
	}
	def := &Definition{
		name:    name,
		states:  make(map[string]State, len(states)),
		actions: make(map[string]*Action, len(actions)),
	}
	for _, s := range states {
		if _, found := def.states[s.Name]; found {
			return nil, DuplicateStateError(s.Name)
		}
		def.states[s.Name] = s
		def.stateOrder = append(def.stateOrder, s.Name)
	}
	for _, a := range actions {
		if _, found := def.actions[a.Name]; found {
			return nil, DuplicateActionError(a.Name)
		}
		if len(a.SourceOrder) == 0 {
			for src := range a.Transitions {
				a.SourceOrder = append(a.SourceOrder, src)
			}
			sort.Strings(a.SourceOrder)
		}
		for _, src := range a.SourceOrder {
			t := a.Transitions[src]
			if t == nil || len(t.Targets) == 0 {
				return nil, EmptyTargetsError(
					fmt.Sprintf("%s[%s]", a.Name, displaySource(src)))
			}
			if t.Method == "" {
				t.Method = a.Name
			}
		}
		def.actions[a.Name] = a
		def.actionOrder = append(def.actionOrder, a.Name)
	}
	return def, nil
}

func displaySource(src string) string {
	if src == "" {
		return "''"
	}
	return src
}

func (d *Definition) Name() string {
	return d.name
}

// StateNames returns the declared state names, in declaration order.
func (d *Definition) StateNames() []string {
	return append([]string(nil), d.stateOrder...)
}

// ActionNames returns the declared action names, in declaration order.
func (d *Definition) ActionNames() []string {
	return append([]string(nil), d.actionOrder...)
}

// StateByName describes one state. The empty-string state always resolves,
// whether declared or not: it is the state of instances that do not exist.
func (d *Definition) StateByName(name string) (State, bool) {
	if s, ok := d.states[name]; ok {
		return s, true
	}
	if name == "" {
		return State{}, true
	}
	return State{}, false
}

// ActionByName describes one action; absent names yield ok == false.
func (d *Definition) ActionByName(name string) (*Action, bool) {
	a, ok := d.actions[name]
	return a, ok
}

// Actions returns all actions in declaration order.
func (d *Definition) Actions() []*Action {
	out := make([]*Action, 0, len(d.actionOrder))
	for _, name := range d.actionOrder {
		out = append(out, d.actions[name])
	}
	return out
}

// States returns all declared states in declaration order.
func (d *Definition) States() []State {
	out := make([]State, 0, len(d.stateOrder))
	for _, name := range d.stateOrder {
		out = append(out, d.states[name])
	}
	return out
}

// ReferencedStates returns the names of every non-empty state mentioned as
// a transition source or target, whether declared or not, in the order they
// are first referenced. The graph exporter uses it to surface undeclared
// states instead of failing on them.
func (d *Definition) ReferencedStates() []string {
	var order []string
	seen := make(map[string]bool)
	ref := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}
	for _, name := range d.actionOrder {
		a := d.actions[name]
		for _, src := range a.SourceOrder {
			ref(src)
			for _, target := range a.Transitions[src].Targets {
				ref(target)
			}
		}
	}
	return order
}

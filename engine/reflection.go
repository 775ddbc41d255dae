/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package engine

import (
	"context"

	"github.com/jkufner/flupdo/machine"
)

// Reflection queries over the machine description. These are pure reads;
// unknown names yield explicit absent values rather than errors, since
// reflection feeds UI enumeration where missing entries are normal.

// States returns the declared state names in declaration order.
func (e *Engine) States() []string {
	return e.def.StateNames()
}

// DescribeState returns the declared metadata of one state.
func (e *Engine) DescribeState(name string) (machine.State, bool) {
	return e.def.StateByName(name)
}

// Actions returns the declared action names in declaration order.
func (e *Engine) Actions() []string {
	return e.def.ActionNames()
}

// DescribeAction returns the declaration of one action.
func (e *Engine) DescribeAction(name string) (*machine.Action, bool) {
	return e.def.ActionByName(name)
}

// AvailableTransition pairs an action name with the transition that makes
// it legal from an instance's current state.
type AvailableTransition struct {
	Action     string              `json:"action"`
	Transition *machine.Transition `json:"transition"`
}

// AvailableTransitions computes the actions legal for the instance right
// now: those with a transition keyed by the current state which either
// carry no permission requirement or pass the permission hook. The result
// follows the definition's declared action order, which keeps UI and test
// output deterministic.
func (e *Engine) AvailableTransitions(ctx context.Context, id machine.ID) ([]AvailableTransition, error) {
	state, err := e.provider.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	var available []AvailableTransition
	for _, action := range e.def.Actions() {
		transition, found := action.TransitionFrom(state)
		if !found {
			continue
		}
		if transition.Permissions != nil &&
			!e.checker.CheckPermissions(ctx, transition.Permissions, id) {
			continue
		}
		available = append(available, AvailableTransition{
			Action:     action.Name,
			Transition: transition,
		})
	}
	return available, nil
}

// CurrentState resolves the instance's current state through the provider.
func (e *Engine) CurrentState(ctx context.Context, id machine.ID) (string, error) {
	return e.provider.GetState(ctx, id)
}

// Properties resolves the instance's full property mapping through the
// provider; it fails for instances that do not exist.
func (e *Engine) Properties(ctx context.Context, id machine.ID) (map[string]any, error) {
	return e.provider.GetProperties(ctx, id)
}

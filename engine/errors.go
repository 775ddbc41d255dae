/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package engine

import (
	"fmt"
	"strings"
)

// The error taxonomy callers dispatch on (errors.Is). The two legality
// failures are deliberately distinct: an undeclared action is a caller bug,
// while an action that merely is not legal from the current state is
// expected in normal operation and usually surfaces as a different UI.
var (
	// ErrUnknownTransition - the action name is not declared at all.
	ErrUnknownTransition = fmt.Errorf("unknown transition")

	// ErrIllegalTransition - the action exists but has no transition from
	// the instance's current state.
	ErrIllegalTransition = fmt.Errorf("transition not allowed from current state")

	// ErrPermissionDenied - the permission hook refused the transition.
	ErrPermissionDenied = fmt.Errorf("transition not permitted")

	// ErrMalformedTargets - a transition without targets was reached; a
	// configuration error, raised before the method is invoked.
	ErrMalformedTargets = fmt.Errorf("transition declares no target states")

	// ErrInvalidReturnKind - the action carries an unknown return-semantics
	// tag; a configuration error, never silently defaulted.
	ErrInvalidReturnKind = fmt.Errorf("invalid return kind")

	// ErrInvalidResult - a RETURNS_NEW_ID method returned something that
	// cannot serve as an instance ID.
	ErrInvalidResult = fmt.Errorf("transition result is not a valid instance id")

	// ErrUnboundMethod - a declared method identifier has no implementation
	// in the registry; raised at engine construction, never lazily.
	ErrUnboundMethod = fmt.Errorf("no implementation bound for method")
)

// UnexpectedStateError reports a violated postcondition: the transition
// body left the instance in a state outside the declared targets. It names
// both the actual and the expected states, since that is the first thing
// anyone debugging a broken transition (or a race) needs to see.
type UnexpectedStateError struct {
	Action string
	From   string
	Got    string
	Want   []string
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf(
		"action %q from state %q ended in undeclared state %q (declared targets: %s)",
		e.Action, e.From, e.Got, strings.Join(e.Want, ", "))
}

/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package engine

import (
	"context"
	"fmt"

	log "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/machine"
)

// StateProvider resolves instance IDs against whatever store actually holds
// the entities. GetState never fails for a missing instance: an instance
// that does not exist simply has the empty ("pre-creation") state.
// GetProperties, by contrast, only makes sense for an existing instance and
// fails for an unknown ID.
type StateProvider interface {
	GetState(ctx context.Context, id machine.ID) (string, error)
	GetProperties(ctx context.Context, id machine.ID) (map[string]any, error)
}

// PermissionChecker decides whether a transition carrying the (opaque)
// permission requirement may be invoked for the given instance. The engine
// only consults it when a transition declares a requirement.
type PermissionChecker interface {
	CheckPermissions(ctx context.Context, permissions any, id machine.ID) bool
}

// allowAll is the checker used when none is supplied.
type allowAll struct{}

func (allowAll) CheckPermissions(context.Context, any, machine.ID) bool { return true }

// AllowAll grants every permission check; useful for tests and for
// machines whose transitions carry no requirements.
var AllowAll PermissionChecker = allowAll{}

// Method is the signature of a bound transition body. It receives the
// instance ID as its implicit first argument, followed by the caller's
// positional arguments. Whatever it does (including mutating storage) is
// opaque to the engine, and any error it returns propagates to the caller
// unwrapped.
type Method func(ctx context.Context, id machine.ID, args []any) (any, error)

// Registry maps method identifiers, as named by transition declarations,
// to their implementations.
type Registry map[string]Method

// Engine executes transitions for one machine type: it resolves the current
// state, validates the requested action against the declared topology,
// gates on permissions, invokes the bound method and asserts that the
// resulting state is one of the declared targets. It holds no per-instance
// state between invocations.
type Engine struct {
	def      *machine.Definition
	provider StateProvider
	checker  PermissionChecker
	methods  map[string]Method
	logger   *log.Log
}

// New builds an Engine for a machine definition. Every method identifier
// named by the definition is resolved against the registry here, so a
// missing implementation fails at registration time rather than on the
// first unlucky invocation.
func New(def *machine.Definition, provider StateProvider, checker PermissionChecker,
	registry Registry) (*Engine, error) {
	if checker == nil {
		checker = AllowAll
	}
	methods := make(map[string]Method)
	for _, action := range def.Actions() {
		for _, src := range action.SourceOrder {
			name := action.Transitions[src].Method
			method, found := registry[name]
			if !found {
				return nil, fmt.Errorf("%w: %s (machine %s, action %s)",
					ErrUnboundMethod, name, def.Name(), action.Name)
			}
			methods[name] = method
		}
	}
	return &Engine{
		def:      def,
		provider: provider,
		checker:  checker,
		methods:  methods,
		logger:   log.NewLog(fmt.Sprintf("engine{%s}", def.Name())),
	}, nil
}

// SetLogLevel implements the log.Loggable interface.
func (e *Engine) SetLogLevel(level log.LogLevel) {
	e.logger.Level = level
}

// Definition returns the (immutable) machine description.
func (e *Engine) Definition() *machine.Definition {
	return e.def
}

// Invoke runs one transition: it resolves the instance's current state,
// checks that `actionName` is declared and legal from that state, gates on
// the permission hook, invokes the bound method with `id` prepended to
// `args`, interprets the result per the action's return kind, and finally
// re-resolves the state to assert it landed on a declared target.
//
// For ReturnsNewID actions the method's result becomes the new instance ID
// and the postcondition is checked against that new ID; for ReturnsValue it
// is checked against the original one. The asymmetry is intentional:
// a creation transition describes the state of the entity it created.
//
// Errors returned by the method itself propagate unwrapped, so transition
// bodies can signal domain failures directly to the caller.
func (e *Engine) Invoke(ctx context.Context, id machine.ID, actionName string,
	args ...any) (any, machine.ReturnKind, error) {
	// The action lookup comes first: an unknown action must be rejected
	// without touching the State Provider.
	action, found := e.def.ActionByName(actionName)
	if !found {
		return nil, 0, fmt.Errorf("%w: action %q is not declared for machine %s",
			ErrUnknownTransition, actionName, e.def.Name())
	}
	state, err := e.provider.GetState(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	transition, found := action.TransitionFrom(state)
	if !found {
		e.logger.Debug("action %q rejected: no transition from state %q", actionName, state)
		return nil, 0, fmt.Errorf("%w: action %q from state %q",
			ErrIllegalTransition, actionName, state)
	}
	if len(transition.Targets) == 0 {
		// A configuration error, distinct from a post-invocation mismatch:
		// nothing has been invoked yet.
		return nil, 0, fmt.Errorf("%w: action %q from state %q",
			ErrMalformedTargets, actionName, state)
	}
	if transition.Permissions != nil &&
		!e.checker.CheckPermissions(ctx, transition.Permissions, id) {
		return nil, 0, fmt.Errorf("%w: action %q on instance %q",
			ErrPermissionDenied, actionName, id)
	}

	e.logger.Debug("invoking %s for [%s] (state %q -> %v)",
		transition.Method, id, state, transition.Targets)
	result, err := e.methods[transition.Method](ctx, id, args)
	if err != nil {
		return nil, 0, err
	}

	switch action.Returns {
	case machine.ReturnsValue:
		// id unchanged, result passed through as-is.
	case machine.ReturnsNewID:
		newID, err := resultID(result)
		if err != nil {
			return nil, 0, fmt.Errorf("%w (action %q returned %T)",
				err, actionName, result)
		}
		id = newID
		result = id
	default:
		return nil, 0, fmt.Errorf("%w: %v (action %q)",
			ErrInvalidReturnKind, action.Returns, actionName)
	}

	newState, err := e.provider.GetState(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !transition.HasTarget(newState) {
		return nil, 0, &UnexpectedStateError{
			Action: actionName,
			From:   state,
			Got:    newState,
			Want:   append([]string(nil), transition.Targets...),
		}
	}
	e.logger.Debug("action %q moved [%s] from %q to %q", actionName, id, state, newState)
	return result, action.Returns, nil
}

// resultID coerces a creation method's return value into an instance ID.
func resultID(result any) (machine.ID, error) {
	switch v := result.(type) {
	case machine.ID:
		return v, nil
	case string:
		return machine.NewID(v), nil
	case []string:
		return machine.ID(v), nil
	default:
		return nil, ErrInvalidResult
	}
}

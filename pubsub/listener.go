/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package pubsub

import (
	"context"
	"errors"
	"fmt"

	log "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/machine"
)

// Listener drains TransitionRequests from a channel, runs each one through
// the engine for its machine type, and posts a TransitionOutcome with the
// named outputs (id, return value, state, properties) on the notifications
// channel, if one is configured.
type Listener struct {
	logger        *log.Log
	requests      <-chan TransitionRequest
	notifications chan<- TransitionOutcome
	catalog       *engine.Catalog
}

type ListenerOptions struct {
	RequestsChannel      <-chan TransitionRequest
	NotificationsChannel chan<- TransitionOutcome
	Catalog              *engine.Catalog
}

func NewListener(options *ListenerOptions) *Listener {
	return &Listener{
		logger:        log.NewLog("Listener"),
		requests:      options.RequestsChannel,
		notifications: options.NotificationsChannel,
		catalog:       options.Catalog,
	}
}

// SetLogLevel to implement the log.Loggable interface.
func (listener *Listener) SetLogLevel(level log.LogLevel) {
	listener.logger.Level = level
}

// ListenForRequests processes requests until the channel is closed.
func (listener *Listener) ListenForRequests() {
	listener.logger.Info("Transition requests listener started")
	for request := range listener.requests {
		listener.logger.Debug("Received request %s", request.String())
		listener.PostOutcome(listener.Process(context.Background(), &request))
	}
	listener.logger.Info("Transition requests listener exiting")
}

// Process runs one request and builds its outcome.
func (listener *Listener) Process(ctx context.Context, request *TransitionRequest) *TransitionOutcome {
	outcome := &TransitionOutcome{
		RequestID: request.RequestID,
		Machine:   request.Machine,
		ID:        request.ID,
	}
	eng, found := listener.catalog.Lookup(request.Machine)
	if !found {
		outcome.Code = UnknownMachine
		outcome.Details = fmt.Sprintf("machine type [%s] is not registered", request.Machine)
		return outcome
	}
	id := machine.ID(request.ID)
	result, kind, err := eng.Invoke(ctx, id, request.Action, request.Args...)
	if err != nil {
		outcome.Code = classify(err)
		outcome.Details = err.Error()
		return outcome
	}
	if kind == machine.ReturnsNewID {
		id = result.(machine.ID)
	}
	outcome.Code = Ok
	outcome.ID = id
	outcome.ReturnValue = result

	// Best effort: the transition already succeeded, a failed snapshot
	// only leaves the outcome without state/properties.
	if state, err := eng.CurrentState(ctx, id); err == nil {
		outcome.State = state
	}
	if properties, err := eng.Properties(ctx, id); err == nil {
		outcome.Properties = properties
	}
	return outcome
}

// PostOutcome logs failures and forwards the outcome to the notifications
// channel, when one is configured.
func (listener *Listener) PostOutcome(outcome *TransitionOutcome) {
	if outcome.Code != Ok {
		listener.logger.Error("[Request ID: %s]: %s", outcome.RequestID, outcome.Details)
	}
	if listener.notifications != nil {
		listener.logger.Debug("Posting outcome for request: %s", outcome.RequestID)
		listener.notifications <- *outcome
	}
}

// classify maps the engine error taxonomy onto outcome codes. Errors raised
// by transition bodies arrive unwrapped and land on InternalError, which is
// all a transport consumer can do with a domain failure it does not know.
func classify(err error) OutcomeCode {
	var unexpected *engine.UnexpectedStateError
	switch {
	case errors.Is(err, engine.ErrUnknownTransition):
		return UnknownTransition
	case errors.Is(err, engine.ErrIllegalTransition):
		return IllegalTransition
	case errors.Is(err, engine.ErrPermissionDenied):
		return PermissionDenied
	case errors.As(err, &unexpected):
		return UnexpectedState
	default:
		return InternalError
	}
}

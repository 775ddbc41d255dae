/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package pubsub

import (
	"encoding/json"
	"time"
)

// OutcomeCode classifies the result of a transition request, mirroring the
// engine's error taxonomy so upstream consumers can dispatch without
// parsing error strings.
type OutcomeCode string

const (
	Ok                OutcomeCode = "ok"
	UnknownMachine    OutcomeCode = "unknown_machine"
	UnknownTransition OutcomeCode = "unknown_transition"
	IllegalTransition OutcomeCode = "illegal_transition"
	PermissionDenied  OutcomeCode = "permission_denied"
	UnexpectedState   OutcomeCode = "unexpected_state"
	InternalError     OutcomeCode = "internal_error"
)

// TransitionRequest is the Internal Representation (IR) for one transition
// to run: which machine type, which instance (empty for creation), which
// action and with which positional arguments.
type TransitionRequest struct {
	RequestID string    `json:"request_id"`
	Machine   string    `json:"machine"`
	ID        []string  `json:"id,omitempty"`
	Action    string    `json:"action"`
	Args      []any     `json:"args,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

func (r *TransitionRequest) String() string {
	s, err := json.Marshal(*r)
	if err != nil {
		return err.Error()
	}
	return string(s)
}

// TransitionOutcome carries the named outputs of one processed request:
// the (possibly new) instance id, the method's return value, the resulting
// state and the instance properties, plus the outcome code and a
// human-readable detail line for failures.
type TransitionOutcome struct {
	RequestID   string         `json:"request_id"`
	Code        OutcomeCode    `json:"code"`
	Machine     string         `json:"machine"`
	ID          []string       `json:"id,omitempty"`
	ReturnValue any            `json:"return_value,omitempty"`
	State       string         `json:"state,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Details     string         `json:"details,omitempty"`
}

func (o *TransitionOutcome) String() string {
	s, err := json.Marshal(*o)
	if err != nil {
		return err.Error()
	}
	return string(s)
}

// Not really "variables" - but Go is too dumb to figure out they're actually constants.
var (
	// We poll SQS every DefaultPollingInterval seconds.
	DefaultPollingInterval, _ = time.ParseDuration("5s")

	// DefaultVisibilityTimeout sets how long SQS will wait for the
	// subscriber to remove the message from the queue.
	DefaultVisibilityTimeout, _ = time.ParseDuration("5s")
)

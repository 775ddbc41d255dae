/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package server

import (
	"github.com/jkufner/flupdo/machine"
)

const (
	ContentType     = "Content-Type"
	ApplicationJson = "application/json"
	GraphvizDot     = "text/vnd.graphviz"
)

// MessageResponse is returned when a more appropriate response is not available.
type MessageResponse struct {
	Msg   interface{} `json:"message,omitempty"`
	Error string      `json:"error,omitempty"`
}

// HealthResponse is used by the HealthHandler to return the server status.
type HealthResponse struct {
	Status string `json:"status"`
}

// StateInfo and ActionInfo describe the machine topology in API responses,
// preserving the definition's declaration order.
type StateInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

type TransitionInfo struct {
	From    string   `json:"from"`
	Targets []string `json:"targets"`
	Method  string   `json:"method"`
}

type ActionInfo struct {
	Name        string           `json:"name"`
	Label       string           `json:"label,omitempty"`
	Description string           `json:"description,omitempty"`
	Returns     string           `json:"returns"`
	Transitions []TransitionInfo `json:"transitions"`
}

// MachineResponse describes one registered machine type.
type MachineResponse struct {
	Name    string       `json:"name"`
	States  []StateInfo  `json:"states"`
	Actions []ActionInfo `json:"actions"`
}

// InstanceResponse reports the current state (and, for existing instances,
// the properties) of one instance.
type InstanceResponse struct {
	ID         []string       `json:"id"`
	State      string         `json:"state"`
	Properties map[string]any `json:"properties,omitempty"`
}

// AvailableTransitionInfo is one entry of the per-instance availability
// listing.
type AvailableTransitionInfo struct {
	Action  string   `json:"action"`
	Label   string   `json:"label,omitempty"`
	Targets []string `json:"targets"`
}

// InvokeRequest asks the server to run one transition. ID is omitted for
// creation actions.
type InvokeRequest struct {
	ID     []string `json:"id,omitempty"`
	Action string   `json:"action"`
	Args   []any    `json:"args,omitempty"`
}

// InvokeResponse reports a successful transition: the (possibly new)
// instance ID, the method's return value and the resulting state.
type InvokeResponse struct {
	RequestID   string   `json:"request_id"`
	ID          []string `json:"id"`
	ReturnValue any      `json:"return_value,omitempty"`
	Returns     string   `json:"returns"`
	State       string   `json:"state"`
}

func describeAction(a *machine.Action) ActionInfo {
	info := ActionInfo{
		Name:        a.Name,
		Label:       a.Label,
		Description: a.Description,
		Returns:     a.Returns.String(),
	}
	for _, src := range a.SourceOrder {
		t := a.Transitions[src]
		info.Transitions = append(info.Transitions, TransitionInfo{
			From:    src,
			Targets: t.Targets,
			Method:  t.Method,
		})
	}
	return info
}

/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/machine"
)

// Compound instance IDs appear in the path as their canonical string form
// (components joined by `#`, URL-encoded by the client).

func GetInstanceHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	eng, ok := lookupEngine(w, r)
	if !ok {
		return
	}
	id := machine.ParseID(mux.Vars(r)["id"])
	state, err := eng.CurrentState(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if state == "" {
		http.Error(w, "instance not found", http.StatusNotFound)
		return
	}
	properties, err := eng.Properties(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = json.NewEncoder(w).Encode(&InstanceResponse{
		ID:         id,
		State:      state,
		Properties: properties,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func GetAvailableTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	eng, ok := lookupEngine(w, r)
	if !ok {
		return
	}
	id := machine.ParseID(mux.Vars(r)["id"])
	available, err := eng.AvailableTransitions(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Keep the response an empty list, not null, when nothing is legal.
	response := make([]AvailableTransitionInfo, 0, len(available))
	for _, at := range available {
		label := ""
		if action, found := eng.DescribeAction(at.Action); found {
			label = action.Label
		}
		response = append(response, AvailableTransitionInfo{
			Action:  at.Action,
			Label:   label,
			Targets: at.Transition.Targets,
		})
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func InvokeTransitionHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	eng, ok := lookupEngine(w, r)
	if !ok {
		return
	}
	var request InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Action == "" {
		http.Error(w, "must always specify an action", http.StatusBadRequest)
		return
	}
	requestId := uuid.New().String()
	id := machine.ID(request.ID)
	logger.Debug("[%s] invoking %s on %s [%s]", requestId, request.Action,
		eng.Definition().Name(), id)

	result, kind, err := eng.Invoke(r.Context(), id, request.Action, request.Args...)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if kind == machine.ReturnsNewID {
		id = result.(machine.ID)
	}
	state, err := eng.CurrentState(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = json.NewEncoder(w).Encode(&InvokeResponse{
		RequestID:   requestId,
		ID:          id,
		ReturnValue: result,
		Returns:     kind.String(),
		State:       state,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// statusFor maps the engine error taxonomy to HTTP statuses: an undeclared
// action is a 404, a merely illegal one a 409 (the caller may retry after
// the state changes), a denied one a 403; configuration errors and
// postcondition violations stay 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownTransition):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, engine.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

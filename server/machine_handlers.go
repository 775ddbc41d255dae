/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/graph"
)

// lookupEngine resolves the {machine} path parameter; on failure it has
// already written the error response.
func lookupEngine(w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	vars := mux.Vars(r)
	if vars == nil {
		http.Error(w, "missing path parameters", http.StatusMethodNotAllowed)
		return nil, false
	}
	eng, found := catalog.Lookup(vars["machine"])
	if !found {
		http.Error(w, "machine type not found", http.StatusNotFound)
		return nil, false
	}
	return eng, true
}

func ListMachinesHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	if err := json.NewEncoder(w).Encode(catalog.Names()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func GetMachineHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	eng, ok := lookupEngine(w, r)
	if !ok {
		return
	}
	def := eng.Definition()
	response := MachineResponse{Name: def.Name()}
	for _, s := range def.States() {
		response.States = append(response.States, StateInfo{
			Name:        s.Name,
			Label:       s.Label,
			Description: s.Description,
			Color:       s.Color,
		})
	}
	for _, a := range def.Actions() {
		response.Actions = append(response.Actions, describeAction(a))
	}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetGraphHandler returns the machine topology as Graphviz DOT text.
func GetGraphHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()

	eng, ok := lookupEngine(w, r)
	if !ok {
		return
	}
	w.Header().Add(ContentType, GraphvizDot)
	_, _ = w.Write([]byte(graph.Export(eng.Definition())))
}

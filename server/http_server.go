/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/engine"
)

const (
	Api              = "/api/v1"
	HealthEndpoint   = "/health"
	MachinesEndpoint = Api + "/machines"
)

var (
	// Release carries the version of the binary, as set by the build script.
	Release string

	shouldTrace bool
	logger      = log.NewLog("server")
	catalog     *engine.Catalog
)

func trace(endpoint string) func() {
	if !shouldTrace {
		return func() {}
	}
	start := time.Now()
	logger.Trace("Handling: [%s]\n", endpoint)
	return func() { logger.Trace("%s took %s\n", endpoint, time.Since(start)) }
}

func defaultContent(w http.ResponseWriter) {
	w.Header().Add(ContentType, ApplicationJson)
}

func EnableTracing() {
	shouldTrace = true
	logger.Level = log.TRACE
}

func SetLogLevel(level log.LogLevel) {
	logger.Level = level
}

// SetCatalog points the handlers at the registered machine types; it must
// be called before the router serves traffic.
func SetCatalog(c *engine.Catalog) {
	catalog = c
}

// NewRouter returns a gorilla/mux Router for the server routes; exposed so
// that path params are testable.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(HealthEndpoint, HealthHandler).Methods("GET")
	r.HandleFunc(MachinesEndpoint, ListMachinesHandler).Methods("GET")
	r.HandleFunc(strings.Join([]string{MachinesEndpoint, "{machine}"}, "/"),
		GetMachineHandler).Methods("GET")
	r.HandleFunc(strings.Join([]string{MachinesEndpoint, "{machine}", "graph"}, "/"),
		GetGraphHandler).Methods("GET")
	r.HandleFunc(strings.Join([]string{MachinesEndpoint, "{machine}", "instances", "{id}"}, "/"),
		GetInstanceHandler).Methods("GET")
	r.HandleFunc(strings.Join([]string{MachinesEndpoint, "{machine}", "instances", "{id}",
		"transitions"}, "/"), GetAvailableTransitionsHandler).Methods("GET")
	r.HandleFunc(strings.Join([]string{MachinesEndpoint, "{machine}", "transitions"}, "/"),
		InvokeTransitionHandler).Methods("POST")
	return r
}

func NewHTTPServer(addr string, logLevel log.LogLevel) *http.Server {
	logger.Level = logLevel
	return &http.Server{
		Addr:    addr,
		Handler: NewRouter(),
	}
}

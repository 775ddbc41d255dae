/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/massenz/slf4go/logging"

	"github.com/jkufner/flupdo/engine"
	"github.com/jkufner/flupdo/machine"
	"github.com/jkufner/flupdo/pubsub"
	"github.com/jkufner/flupdo/server"
	"github.com/jkufner/flupdo/storage"
)

var (
	logger = log.NewLog("flupdo")

	listener *pubsub.Listener
	pub      *pubsub.SqsPublisher
	sub      *pubsub.SqsSubscriber
	wg       sync.WaitGroup

	// subWg tracks the SQS subscriber alone: it must have stopped producing
	// before the requests channel is closed at shutdown.
	subWg sync.WaitGroup

	// requestsCh is the channel over which the Listener receives transition
	// requests to process; the PubSub Subscriber (if configured) produces
	// into this channel.
	requestsCh = make(chan pubsub.TransitionRequest)

	// notificationsCh carries transition outcomes to publish on the
	// -notifications topic; not configured by default.
	notificationsCh chan pubsub.TransitionOutcome = nil
)

func main() {
	var awsEndpoint = flag.String("endpoint-url", "",
		"HTTP URL for AWS SQS to connect to; usually best left undefined, "+
			"unless required for local testing purposes (LocalStack uses http://localhost:4566)")
	var debug = flag.Bool("debug", false,
		"Verbose logs; better to avoid on Production services")
	var definitions = flag.String("definitions", "data",
		"Directory holding the YAML machine definitions")
	var eventsTopic = flag.String("events", "",
		"(optional) Topic name to receive transition requests from")
	var httpAddr = flag.String("http", ":7399", "Address for the HTTP server")
	var notificationsTopic = flag.String("notifications", "",
		"(optional) The name of the topic to publish transition outcomes to; if not "+
			"specified, no outcomes will be published")
	var redisUrl = flag.String("redis", "",
		"host:port for a Redis instance backing the instance records; "+
			"defaults to an in-memory store, for local testing only")
	var trace = flag.Bool("trace", false,
		"Extremely verbose logs for every API request; do not use in production")
	flag.Parse()

	setLogLevel(*debug, *trace)
	logger.Info("starting state machine server (%s)", server.Release)

	if *redisUrl != "" {
		logger.Info("connecting to Redis server: %s", *redisUrl)
	} else {
		logger.Warn("no Redis server configured, using transient in-memory stores")
	}

	defs, err := machine.ReadDefinitionDir(*definitions)
	if err != nil {
		logger.Fatal(err)
	}
	// Each machine type needs its transition methods bound; definitions
	// without a registry are skipped, not fatal.
	registries := map[string]func(storage.Store) engine.Registry{
		"orders": OrdersRegistry,
	}
	catalog := engine.NewCatalog()
	for _, def := range defs {
		bind, found := registries[def.Name()]
		if !found {
			logger.Warn("no methods registered for machine type [%s], skipping", def.Name())
			continue
		}
		store := newStore(*redisUrl, def.Name())
		eng, err := engine.New(def, store, engine.AllowAll, bind(store))
		if err != nil {
			logger.Fatal(err)
		}
		if err := catalog.Register(eng); err != nil {
			logger.Fatal(err)
		}
	}
	logger.Info("registered machine types: %v", catalog.Names())

	done := make(chan interface{})
	if *eventsTopic != "" {
		logger.Info("subscribing to transition requests on topic [%s]", *eventsTopic)
		sub = pubsub.NewSqsSubscriber(requestsCh, awsEndpoint)
		if sub == nil {
			logger.Fatal(fmt.Errorf("cannot create a valid SQS Subscriber"))
		}
		subWg.Add(1)
		go func() {
			defer subWg.Done()
			sub.Subscribe(*eventsTopic, done)
		}()
	}
	if *notificationsTopic != "" {
		logger.Info("sending transition outcomes to topic [%s]", *notificationsTopic)
		notificationsCh = make(chan pubsub.TransitionOutcome)
		defer close(notificationsCh)
		pub = pubsub.NewSqsPublisher(notificationsCh, awsEndpoint)
		go pub.Publish(*notificationsTopic)
	}

	listener = pubsub.NewListener(&pubsub.ListenerOptions{
		RequestsChannel:      requestsCh,
		NotificationsChannel: notificationsCh,
		Catalog:              catalog,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		listener.ListenForRequests()
	}()

	server.SetCatalog(catalog)
	if *trace {
		server.EnableTracing()
	}
	srv := server.NewHTTPServer(*httpAddr, logger.Level)
	go func() {
		logger.Info("HTTP server listening on %s", *httpAddr)
		if err := srv.ListenAndServe(); err != nil {
			logger.Info("HTTP server: %s", err)
		}
	}()

	logger.Info("server ready to process transitions...")
	RunUntilStopped(done)
	_ = srv.Close()
	logger.Info("...done. Goodbye.")
}

// RunUntilStopped traps Ctrl-C and SIGTERM (Docker/Kubernetes) to shut
// down gracefully.
func RunUntilStopped(done chan interface{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until a signal is received.
	<-c
	logger.Info("shutting down services...")
	close(done)
	// The subscriber produces into requestsCh; it must be gone before the
	// channel closes, or an in-flight forward would panic.
	subWg.Wait()
	close(requestsCh)
	logger.Info("waiting for services to exit...")
	wg.Wait()
}

// newStore builds the State Provider for one machine type. Each type gets
// its own provider: Redis records are scoped by the machine name in the key
// prefix, and in-memory stores must not share instance IDs across types.
func newStore(redisUrl string, machineName string) storage.Store {
	if redisUrl != "" {
		return storage.NewRedisProviderWithDefaults(redisUrl, machineName)
	}
	return storage.NewMemoryProvider()
}

// setLogLevel sets the logging level depending on -debug / -trace.
// If both are set, then -trace takes priority.
func setLogLevel(debug bool, trace bool) {
	if trace {
		logger.Level = log.TRACE
	} else if debug {
		logger.Level = log.DEBUG
	}
}

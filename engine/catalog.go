/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package engine

import (
	"fmt"
	"sync"
)

var AlreadyRegisteredError = fmt.Errorf("a machine type with this name is already registered")

// Catalog holds the engines for every registered machine type, keyed by the
// definition name. Registration normally happens once, at startup; lookups
// are concurrent.
type Catalog struct {
	mux   sync.RWMutex
	types map[string]*Engine
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{types: make(map[string]*Engine)}
}

// Register adds an engine under its definition name.
func (c *Catalog) Register(e *Engine) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	name := e.Definition().Name()
	if _, found := c.types[name]; found {
		return fmt.Errorf("%w: %s", AlreadyRegisteredError, name)
	}
	c.types[name] = e
	c.order = append(c.order, name)
	return nil
}

// Lookup returns the engine for a machine type.
func (c *Catalog) Lookup(name string) (*Engine, bool) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	e, found := c.types[name]
	return e, found
}

// Names lists the registered machine types, in registration order.
func (c *Catalog) Names() []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return append([]string(nil), c.order...)
}

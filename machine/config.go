/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package machine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// The YAML form of a machine definition keeps states and actions as
// mappings keyed by name:
//
//	name: orders
//	states:
//	  pending: {label: Pending, color: "#ffd479"}
//	  shipped: {label: Shipped}
//	actions:
//	  create:
//	    returns: new_id
//	    transitions:
//	      "": {targets: [pending]}
//	  ship:
//	    transitions:
//	      pending: {targets: [shipped]}
//
// Mapping order is significant (it fixes reflection and graph output), so
// the documents are decoded through yaml.Node instead of plain maps.

type transitionDoc struct {
	Targets     []string `yaml:"targets"`
	Method      string   `yaml:"method"`
	Permissions any      `yaml:"permissions"`
}

type actionDoc struct {
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Returns     string    `yaml:"returns"`
	Transitions yaml.Node `yaml:"transitions"`
}

type definitionDoc struct {
	Name    string    `yaml:"name"`
	States  yaml.Node `yaml:"states"`
	Actions yaml.Node `yaml:"actions"`
}

// LoadDefinition parses and validates a YAML machine definition; a
// malformed document fails here, at load time, never silently later.
func LoadDefinition(data []byte) (*Definition, error) {
	var doc definitionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", MalformedDefinitionError, err)
	}
	states, err := decodeStates(&doc.States)
	if err != nil {
		return nil, err
	}
	actions, err := decodeActions(&doc.Actions)
	if err != nil {
		return nil, err
	}
	return NewDefinition(doc.Name, states, actions)
}

// ReadDefinitionFile loads a single definition from a YAML file.
func ReadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := LoadDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ReadDefinitionDir loads every .yaml/.yml definition in a directory, in
// filename order.
func ReadDefinitionDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	var defs []*Definition
	for _, path := range paths {
		def, err := ReadDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// mappingPairs walks a YAML mapping node and yields its key/value pairs in
// document order. The zero node (absent key) yields nothing.
func mappingPairs(node *yaml.Node, visit func(key string, value *yaml.Node) error) error {
	if node.IsZero() || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a mapping, got %s",
			MalformedDefinitionError, node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("%w: %v", MalformedDefinitionError, err)
		}
		if err := visit(key, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func decodeStates(node *yaml.Node) ([]State, error) {
	var states []State
	err := mappingPairs(node, func(name string, value *yaml.Node) error {
		var s State
		if value.Tag != "!!null" {
			if err := value.Decode(&s); err != nil {
				return fmt.Errorf("%w: state %s: %v",
					MalformedDefinitionError, name, err)
			}
		}
		s.Name = name
		states = append(states, s)
		return nil
	})
	return states, err
}

func decodeActions(node *yaml.Node) ([]*Action, error) {
	var actions []*Action
	err := mappingPairs(node, func(name string, value *yaml.Node) error {
		var doc actionDoc
		if err := value.Decode(&doc); err != nil {
			return fmt.Errorf("%w: action %s: %v",
				MalformedDefinitionError, name, err)
		}
		returns, err := ParseReturnKind(strings.TrimSpace(doc.Returns))
		if err != nil {
			return fmt.Errorf("action %s: %w", name, err)
		}
		action := &Action{
			Name:        name,
			Label:       doc.Label,
			Description: doc.Description,
			Returns:     returns,
			Transitions: make(map[string]*Transition),
		}
		err = mappingPairs(&doc.Transitions, func(src string, tNode *yaml.Node) error {
			var tDoc transitionDoc
			if err := tNode.Decode(&tDoc); err != nil {
				return fmt.Errorf("%w: action %s, source %s: %v",
					MalformedDefinitionError, name, displaySource(src), err)
			}
			action.Transitions[src] = &Transition{
				Targets:     tDoc.Targets,
				Method:      tDoc.Method,
				Permissions: tDoc.Permissions,
			}
			action.SourceOrder = append(action.SourceOrder, src)
			return nil
		})
		if err != nil {
			return err
		}
		actions = append(actions, action)
		return nil
	})
	return actions, err
}

// Package plugin runs external executables on scene transitions. Each
// plugin lives in its own directory with a plugin.json manifest and gets
// one JSON request on stdin per matching transition.
package plugin

import (
	"encoding/json"
	"slices"
)

// Manifest describes a plugin and which transitions it wants.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// States filters on the target state name. Empty matches every state.
	States []string `json:"states,omitempty"`
	// Triggers filters on gesture, manual or timer. Empty matches all.
	Triggers []string        `json:"triggers,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Matches reports whether a transition into to by trigger concerns m.
func (m Manifest) Matches(to, trigger string) bool {
	if len(m.States) > 0 && !slices.Contains(m.States, to) {
		return false
	}
	if len(m.Triggers) > 0 && !slices.Contains(m.Triggers, trigger) {
		return false
	}
	return true
}

// Request is sent to a plugin for one transition.
type Request struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Trigger string          `json:"trigger"`
	At      string          `json:"at"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// EventTransition is the only event sent today.
const EventTransition = "transition"

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

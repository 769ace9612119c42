// Package plugin delivers recognition events to external executables.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// For each event the plugin subscribes to, the executable is started with a
// JSON Request on stdin and must print a JSON Response on stdout.
package plugin

import "slices"

// Event names a plugin can subscribe to.
const (
	EventSign = "sign"
	EventWord = "word"
)

// Manifest describes a plugin's metadata and subscriptions.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Handles reports whether the plugin subscribes to event. A manifest with
// no events receives words only.
func (m Manifest) Handles(event string) bool {
	if len(m.Events) == 0 {
		return event == EventWord
	}
	return slices.Contains(m.Events, event)
}

// Request is sent to a plugin on stdin.
type Request struct {
	Event       string  `json:"event"`
	SessionID   string  `json:"session_id"`
	Seq         uint64  `json:"seq"`
	Sign        string  `json:"sign,omitempty"`
	Probability float64 `json:"probability,omitempty"`
	Reading     string  `json:"reading,omitempty"`
	Word        string  `json:"word,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

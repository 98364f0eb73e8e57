package session

import "github.com/sandevgo/teammate/internal/core"

// EventKind labels what the UI should update.
type EventKind int

const (
	EventUtterance EventKind = iota
	EventListening
	EventCleared
	EventNotice
)

// Event is one UI-facing update from the session loop.
type Event struct {
	Kind       EventKind
	Utterance  core.Utterance
	References []core.Reference
	Listening  bool
	Notice     string
}

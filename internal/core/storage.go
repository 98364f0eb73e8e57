package core

import (
	"context"
	"time"
)

// TranscriptRepository is the durable log of everything said during a
// session, human and persona alike.
type TranscriptRepository interface {
	CreateSession(ctx context.Context, sessionID, language string) error
	AddUtterance(ctx context.Context, u Utterance) error
	GetUtterances(ctx context.Context, sessionID string, limit int) ([]Utterance, error)
}

// StoredSession is one row of the sessions table.
type StoredSession struct {
	ID        string    `json:"id"`
	Language  string    `json:"language"`
	StartedAt time.Time `json:"started_at"`
}

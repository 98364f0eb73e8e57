package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/log"
)

type TranscriptsRepo struct {
	db *sql.DB
}

func NewTranscriptsRepo(db *sql.DB) *TranscriptsRepo {
	return &TranscriptsRepo{db: db}
}

func (r *TranscriptsRepo) CreateSession(ctx context.Context, sessionID, language string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, language) VALUES (?, ?)`,
		sessionID, language,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *TranscriptsRepo) AddUtterance(ctx context.Context, u core.Utterance) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO utterances (id, session_id, speaker, content, language, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.SessionID, u.Speaker, u.Text, u.Language, u.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert utterance: %w", err)
	}
	return nil
}

// GetUtterances returns the last limit utterances of a session in
// chronological order.
func (r *TranscriptsRepo) GetUtterances(ctx context.Context, sessionID string, limit int) ([]core.Utterance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, speaker, content, language, created_at
		 FROM utterances WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}
	defer rows.Close()

	var utterances []core.Utterance
	for rows.Next() {
		u := core.Utterance{SessionID: sessionID}
		if err := rows.Scan(&u.ID, &u.Speaker, &u.Text, &u.Language, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan utterance: %w", err)
		}
		utterances = append(utterances, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order; the query fetched newest first.
	for i, j := 0, len(utterances)-1; i < j; i, j = i+1, j-1 {
		utterances[i], utterances[j] = utterances[j], utterances[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(utterances)).Msg("loaded transcript history")
	return utterances, nil
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/teammate/internal/core"
)

func newTestRepo(t *testing.T) *TranscriptsRepo {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTranscriptsRepo(db)
}

func TestTranscripts_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateSession(ctx, "s1", "en"))

	base := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		err := repo.AddUtterance(ctx, core.Utterance{
			ID:        string(rune('a' + i)),
			SessionID: "s1",
			Speaker:   "Human",
			Text:      text,
			Language:  "en",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := repo.GetUtterances(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "third", got[2].Text)
}

func TestTranscripts_LimitKeepsNewest(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateSession(ctx, "s1", "en"))
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := repo.AddUtterance(ctx, core.Utterance{
			ID:        string(rune('a' + i)),
			SessionID: "s1",
			Speaker:   "Human",
			Text:      string(rune('0' + i)),
			Language:  "en",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := repo.GetUtterances(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].Text)
	assert.Equal(t, "4", got[1].Text)
}

func TestTranscripts_EmptySession(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	got, err := repo.GetUtterances(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

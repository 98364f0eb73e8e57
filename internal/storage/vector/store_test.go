package vector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxElements int) *Store {
	t.Helper()
	s, err := New(context.Background(), t.TempDir(), maxElements, time.Hour)
	require.NoError(t, err)
	return s
}

func TestQuery_EmptyStore(t *testing.T) {
	s := newTestStore(t, 10)

	refs, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestQuery_IdenticalEmbedding(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)

	emb := []float32{0.1, 0.9, 0.3}
	_, err := s.Add(ctx, "the deadline moved to Friday", emb, nil)
	require.NoError(t, err)

	refs, err := s.Query(ctx, emb, 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "the deadline moved to Friday", refs[0].Text)
	assert.InDelta(t, 1.0, float64(refs[0].Similarity), 1e-3)
}

func TestQuery_RankedDescending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)

	// Orthogonal-ish vectors with decreasing similarity to the query.
	query := []float32{1, 0, 0}
	_, err := s.Add(ctx, "far", []float32{0, 1, 0}, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, "near", []float32{1, 0.1, 0}, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, "middle", []float32{1, 1, 0}, nil)
	require.NoError(t, err)

	refs, err := s.Query(ctx, query, 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "near", refs[0].Text)
	assert.Equal(t, "middle", refs[1].Text)
	assert.Equal(t, "far", refs[2].Text)
	for i := 1; i < len(refs); i++ {
		assert.LessOrEqual(t, refs[i].Similarity, refs[i-1].Similarity)
	}
}

func TestAdd_EvictionNeverExceedsCap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	for i := 0; i < 20; i++ {
		_, err := s.Add(ctx, fmt.Sprintf("entry %d", i), []float32{float32(i + 1), 1, 0}, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, s.Count(), 3)
	}
	assert.Equal(t, 3, s.Count())

	// Oldest entries are gone; the survivors are the last three added.
	refs, err := s.Query(ctx, []float32{1, 1, 0}, 3)
	require.NoError(t, err)
	texts := []string{refs[0].Text, refs[1].Text, refs[2].Text}
	assert.NotContains(t, texts, "entry 0")
	assert.Contains(t, texts, "entry 19")
}

func TestAdd_RejectsMalformed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)

	_, err := s.Add(ctx, "", []float32{1}, nil)
	assert.Error(t, err)
	_, err = s.Add(ctx, "text", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestFlushAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(ctx, dir, 10, time.Hour)
	require.NoError(t, err)

	emb := []float32{0.2, 0.8, 0.1}
	_, err = s.Add(ctx, "budget approved for Q3", emb, map[string]string{"title": "budget"})
	require.NoError(t, err)
	require.NoError(t, s.Flush())

	// A fresh store over the same directory sees the flushed entry.
	s2, err := New(ctx, dir, 10, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Count())

	refs, err := s2.Query(ctx, emb, 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "budget approved for Q3", refs[0].Text)
	assert.Equal(t, "budget", refs[0].Title)
}

func TestLoad_TrimsToLoweredCap(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(ctx, dir, 5, time.Hour)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, fmt.Sprintf("entry %d", i), []float32{float32(i + 1), 1, 0}, nil)
		require.NoError(t, err)
	}
	require.NoError(t, s.Flush())

	// Reopening with a smaller cap drops the oldest entries immediately.
	s2, err := New(ctx, dir, 2, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, s2.Count())

	refs, err := s2.Query(ctx, []float32{1, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	texts := []string{refs[0].Text, refs[1].Text}
	assert.Contains(t, texts, "entry 3")
	assert.Contains(t, texts, "entry 4")
}

func TestQuery_TieAtBoundaryPrefersNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)

	// Two entries with the same embedding tie on similarity; only the
	// newer one fits into k=1.
	emb := []float32{0.4, 0.6, 0.2}
	_, err := s.Add(ctx, "older duplicate", emb, nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.Add(ctx, "newer duplicate", emb, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, "unrelated", []float32{0, 0, 1}, nil)
	require.NoError(t, err)

	refs, err := s.Query(ctx, emb, 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "newer duplicate", refs[0].Text)
}

func TestFlush_NoopWhenClean(t *testing.T) {
	s := newTestStore(t, 10)
	require.NoError(t, s.Flush())
	require.NoError(t, s.Flush())
}

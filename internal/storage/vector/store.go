// Package vector implements the long-term reference store on top of
// chromem-go. The index lives in memory; a gob snapshot is written on a
// fixed interval and on shutdown, so a crash loses at most the entries
// added since the last flush.
package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/log"
)

const (
	collectionName = "references"
	snapshotFile   = "references.gob"
)

type storedEntry struct {
	ID        string
	Text      string
	Embedding []float32
	Meta      map[string]string
	AddedAt   time.Time
}

type Store struct {
	mu            sync.Mutex
	col           *chromem.Collection
	entries       []storedEntry // insertion order, oldest first
	addedAt       map[string]time.Time
	maxElements   int
	path          string
	flushInterval time.Duration
	dirty         bool
}

// New opens the store under dir, loading a previous snapshot if one exists.
func New(ctx context.Context, dir string, maxElements int, flushInterval time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create vector db directory: %w", err)
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s := &Store{
		col:           col,
		addedAt:       make(map[string]time.Time),
		maxElements:   maxElements,
		path:          filepath.Join(dir, snapshotFile),
		flushInterval: flushInterval,
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var entries []storedEntry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	// The cap may have been lowered since the snapshot was written; evict
	// the oldest entries now so the limit holds from startup.
	if len(entries) > s.maxElements {
		entries = entries[len(entries)-s.maxElements:]
		s.dirty = true
	}

	for _, e := range entries {
		if err := s.col.AddDocument(ctx, chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Embedding,
			Metadata:  e.Meta,
		}); err != nil {
			return fmt.Errorf("restore entry %s: %w", e.ID, err)
		}
		s.addedAt[e.ID] = e.AddedAt
		s.entries = append(s.entries, e)
	}

	log.FromCtx(ctx).Info().Int("entries", len(entries)).Msg("loaded vector store snapshot")
	return nil
}

// Add inserts a new entry, evicting the oldest ones past the capacity cap.
func (s *Store) Add(ctx context.Context, text string, embedding []float32, meta map[string]string) (string, error) {
	if text == "" {
		return "", &core.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len(embedding) == 0 {
		return "", &core.ValidationError{Field: "embedding", Reason: "must not be empty"}
	}
	if meta == nil {
		meta = map[string]string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Embedding: embedding,
		Meta:      meta,
		AddedAt:   time.Now(),
	}

	if err := s.col.AddDocument(ctx, chromem.Document{
		ID:        entry.ID,
		Content:   entry.Text,
		Embedding: entry.Embedding,
		Metadata:  entry.Meta,
	}); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	s.addedAt[entry.ID] = entry.AddedAt
	s.entries = append(s.entries, entry)
	s.dirty = true

	for len(s.entries) > s.maxElements {
		oldest := s.entries[0]
		if err := s.col.Delete(ctx, nil, nil, oldest.ID); err != nil {
			return "", fmt.Errorf("evict %s: %w", oldest.ID, err)
		}
		s.entries = s.entries[1:]
		delete(s.addedAt, oldest.ID)
	}

	return entry.ID, nil
}

// Query returns up to k entries ranked by cosine similarity descending,
// ties broken by most recent first. An empty store yields an empty result,
// not an error.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]core.Reference, error) {
	if len(embedding) == 0 {
		return nil, &core.ValidationError{Field: "embedding", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if k <= 0 || len(s.entries) == 0 {
		return nil, nil
	}
	if k > len(s.entries) {
		k = len(s.entries)
	}

	// Rank everything ourselves: truncating inside the index would break
	// ties at the k boundary arbitrarily instead of most-recent-first.
	results, err := s.col.QueryEmbedding(ctx, embedding, len(s.entries), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	refs := make([]core.Reference, 0, len(results))
	for _, r := range results {
		ref := core.Reference{
			ID:         r.ID,
			Text:       r.Content,
			Title:      r.Metadata["title"],
			URL:        r.Metadata["url"],
			Similarity: r.Similarity,
		}
		if ts, ok := s.addedAt[r.ID]; ok {
			ref.Timestamp = ts
		}
		refs = append(refs, ref)
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Similarity != refs[j].Similarity {
			return refs[i].Similarity > refs[j].Similarity
		}
		return refs[i].Timestamp.After(refs[j].Timestamp)
	})

	if k > len(refs) {
		k = len(refs)
	}
	return refs[:k], nil
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Flush writes the snapshot atomically. A no-op when nothing changed.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(s.entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.dirty = false
	return nil
}

// Start flushes on the configured interval until ctx is cancelled.
func (s *Store) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("periodic vector store flush failed")
			}
		}
	}
}

func (s *Store) Shutdown(ctx context.Context) error {
	return s.Flush()
}

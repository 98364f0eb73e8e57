package contextmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/log"
)

// Manager holds the rolling conversation window and merges it with
// long-term references into a per-cycle bundle.
type Manager struct {
	cfg      *config.Config
	embedder core.Embedder
	store    core.ReferenceStore

	mu     sync.Mutex
	window []core.Utterance
}

func NewManager(cfg *config.Config, embedder core.Embedder, store core.ReferenceStore) *Manager {
	return &Manager{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		window:   make([]core.Utterance, 0, cfg.Memory.MaxRecentMessages),
	}
}

// Append adds an utterance to the window, dropping the oldest entries once
// the window is full.
func (m *Manager) Append(u core.Utterance) error {
	if u.Text == "" {
		return &core.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if u.Speaker == "" {
		return &core.ValidationError{Field: "speaker", Reason: "must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = append(m.window, u)
	if max := m.cfg.Memory.MaxRecentMessages; len(m.window) > max {
		m.window = append(m.window[:0], m.window[len(m.window)-max:]...)
	}
	return nil
}

// BuildBundle assembles the context for one response cycle. The returned
// bundle is always usable: when retrieval fails it carries the window alone
// and the error wraps core.ErrRetrievalUnavailable for the caller to log.
func (m *Manager) BuildBundle(ctx context.Context, query, language string) (core.ContextBundle, error) {
	bundle := core.ContextBundle{
		Window:   m.Window(),
		Language: language,
	}

	k := m.cfg.Memory.MaxReferences
	if k == 0 || query == "" {
		return bundle, nil
	}

	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return bundle, fmt.Errorf("%w: embed query: %v", core.ErrRetrievalUnavailable, err)
	}

	refs, err := m.store.Query(ctx, vec, k)
	if err != nil {
		return bundle, fmt.Errorf("%w: query: %v", core.ErrRetrievalUnavailable, err)
	}

	kept := refs[:0]
	for _, r := range refs {
		if r.Similarity >= m.cfg.Memory.MinSimilarity {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Similarity != kept[j].Similarity {
			return kept[i].Similarity > kept[j].Similarity
		}
		return kept[i].Timestamp.After(kept[j].Timestamp)
	})

	bundle.References = kept
	log.FromCtx(ctx).Debug().
		Int("window", len(bundle.Window)).
		Int("references", len(kept)).
		Msg("context bundle built")
	return bundle, nil
}

// Window returns a snapshot of the current window, oldest first.
func (m *Manager) Window() []core.Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Utterance, len(m.window))
	copy(out, m.window)
	return out
}

// Clear empties the window. Long-term references are not touched.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = m.window[:0]
}

// Len reports the current window size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.window)
}

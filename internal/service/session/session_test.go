package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/internal/service/contextmgr"
	"github.com/sandevgo/teammate/internal/service/orchestrator"
	"github.com/sandevgo/teammate/internal/service/speaker"
)

type fakeSource struct {
	chunks  chan []float32
	running bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{chunks: make(chan []float32, 4)}
}

func (f *fakeSource) Start() error            { f.running = true; return nil }
func (f *fakeSource) Stop()                   { f.running = false }
func (f *fakeSource) Chunks() <-chan []float32 { return f.chunks }
func (f *fakeSource) Close() error            { return nil }

type fakeTranscriber struct {
	text       string
	confidence float64
	delay      time.Duration
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []float32, _ int, _ string) (core.Transcript, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return core.Transcript{Text: f.text, Confidence: f.confidence, Language: "english"}, nil
}

type fakeModel struct{ reply string }

func (f *fakeModel) Chat(_ context.Context, _ []core.Message) (string, error) {
	return f.reply, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeRepo struct {
	sessions   []string
	utterances []core.Utterance
}

func (f *fakeRepo) CreateSession(_ context.Context, sessionID, _ string) error {
	f.sessions = append(f.sessions, sessionID)
	return nil
}

func (f *fakeRepo) AddUtterance(_ context.Context, u core.Utterance) error {
	f.utterances = append(f.utterances, u)
	return nil
}

func (f *fakeRepo) GetUtterances(_ context.Context, _ string, _ int) ([]core.Utterance, error) {
	return f.utterances, nil
}

type fakeRefs struct {
	added    []string
	flushes  int
	queryErr error
}

func (f *fakeRefs) Add(_ context.Context, text string, _ []float32, _ map[string]string) (string, error) {
	f.added = append(f.added, text)
	return "id", nil
}

func (f *fakeRefs) Query(_ context.Context, _ []float32, _ int) ([]core.Reference, error) {
	return nil, f.queryErr
}

func (f *fakeRefs) Flush() error { f.flushes++; return nil }
func (f *fakeRefs) Count() int   { return len(f.added) }

type fakeSynth struct{}

func (f *fakeSynth) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return []byte{0, 0}, nil
}
func (f *fakeSynth) SampleRate() int { return 16000 }

func newTestSession(t *testing.T, transcriber core.Transcriber) (*Session, *fakeSource, *fakeRepo, *fakeRefs) {
	t.Helper()

	cfg := config.Default()
	source := newFakeSource()
	repo := &fakeRepo{}
	refs := &fakeRefs{}
	embedder := &fakeEmbedder{}

	mgr := contextmgr.NewManager(cfg, embedder, refs)
	orch := orchestrator.New(cfg, &fakeModel{reply: "good point"}, nil)
	spk := speaker.New(&fakeSynth{})

	s := New(cfg, source, transcriber, mgr, orch, spk, repo, embedder, refs)
	return s, source, repo, refs
}

func waitForEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-s.Events():
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("no event of kind %d", kind)
		}
	}
}

func TestSessionFullCycle(t *testing.T) {
	s, source, repo, refs := newTestSession(t, &fakeTranscriber{text: "shall we ship friday", confidence: 0.9})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	source.chunks <- make([]float32, 16000)

	first := waitForEvent(t, s, EventUtterance)
	assert.Equal(t, "Human", first.Utterance.Speaker)
	assert.Equal(t, "shall we ship friday", first.Utterance.Text)

	second := waitForEvent(t, s, EventUtterance)
	assert.Equal(t, "Theo", second.Utterance.Speaker)
	assert.Equal(t, "good point", second.Utterance.Text)

	require.Len(t, repo.sessions, 1)
	require.Len(t, repo.utterances, 2)
	assert.Equal(t, []string{"shall we ship friday", "good point"}, refs.added)
}

func TestSessionSkipsLowConfidence(t *testing.T) {
	s, source, repo, _ := newTestSession(t, &fakeTranscriber{text: "noise", confidence: 0.05})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	source.chunks <- make([]float32, 16000)

	select {
	case e := <-s.Events():
		t.Fatalf("unexpected event %d", e.Kind)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, repo.utterances)
}

func TestSessionListeningToggle(t *testing.T) {
	s, source, _, _ := newTestSession(t, &fakeTranscriber{})

	require.NoError(t, s.StartListening())
	assert.True(t, s.Listening())
	assert.True(t, source.running)

	s.StopListening()
	assert.False(t, s.Listening())
	assert.False(t, source.running)
}

func TestSessionSetLanguage(t *testing.T) {
	s, _, _, _ := newTestSession(t, &fakeTranscriber{})

	require.NoError(t, s.SetLanguage("English"))
	assert.Equal(t, "English", s.Language())

	var verr *core.ValidationError
	require.ErrorAs(t, s.SetLanguage("Klingon"), &verr)
	assert.Equal(t, "English", s.Language())
}

func TestSessionNotifiesWhenMemoryDegraded(t *testing.T) {
	s, source, _, refs := newTestSession(t, &fakeTranscriber{text: "what did we decide", confidence: 0.9})
	refs.queryErr = errors.New("index corrupted")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	source.chunks <- make([]float32, 16000)

	notice := waitForEvent(t, s, EventNotice)
	assert.Contains(t, notice.Notice, "without references")

	// The cycle still produces a reply.
	reply := waitForEvent(t, s, EventUtterance)
	for reply.Utterance.Speaker != "Theo" {
		reply = waitForEvent(t, s, EventUtterance)
	}
	assert.Equal(t, "good point", reply.Utterance.Text)
}

func TestSessionShutdownWaitsForInFlightChunk(t *testing.T) {
	s, source, _, refs := newTestSession(t, &fakeTranscriber{
		text:       "slow but important",
		confidence: 0.9,
		delay:      150 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	source.chunks <- make([]float32, 16000)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))

	assert.Contains(t, refs.added, "slow but important")
	assert.GreaterOrEqual(t, refs.flushes, 1)
}

func TestSessionClearHistoryKeepsMemory(t *testing.T) {
	s, source, _, refs := newTestSession(t, &fakeTranscriber{text: "remember this", confidence: 0.9})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	source.chunks <- make([]float32, 16000)
	waitForEvent(t, s, EventUtterance)
	waitForEvent(t, s, EventUtterance)

	s.ClearHistory()

	assert.Equal(t, 0, s.contextMgr.Len())
	assert.NotEmpty(t, refs.added)
}

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/internal/service/contextmgr"
	"github.com/sandevgo/teammate/internal/service/orchestrator"
	"github.com/sandevgo/teammate/internal/service/speaker"
	"github.com/sandevgo/teammate/pkg/log"
	"github.com/sandevgo/teammate/pkg/textutil"
)

const (
	transcribeTimeout = 30 * time.Second
	persistTimeout    = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	// minConfidence filters out chunks that are silence or noise.
	minConfidence = 0.3
)

// AudioSource is a live microphone feed. Chunks carry fixed-length mono
// PCM float32 frames.
type AudioSource interface {
	Start() error
	Stop()
	Chunks() <-chan []float32
	Close() error
}

// Session drives one meeting: audio in, transcript and memory updated,
// persona replies spoken out. All pipeline state is owned by the run loop
// goroutine; control methods communicate through channels.
type Session struct {
	cfg          *config.Config
	source       AudioSource
	transcriber  core.Transcriber
	contextMgr   *contextmgr.Manager
	orchestrator *orchestrator.Orchestrator
	speaker      *speaker.Speaker
	repo         core.TranscriptRepository
	embedder     core.Embedder
	refs         core.ReferenceStore

	id       string
	events   chan Event
	done     chan struct{}
	loopDone chan struct{}

	mu        sync.Mutex
	listening bool
	language  string
}

func New(
	cfg *config.Config,
	source AudioSource,
	transcriber core.Transcriber,
	contextMgr *contextmgr.Manager,
	orch *orchestrator.Orchestrator,
	spk *speaker.Speaker,
	repo core.TranscriptRepository,
	embedder core.Embedder,
	refs core.ReferenceStore,
) *Session {
	return &Session{
		cfg:          cfg,
		source:       source,
		transcriber:  transcriber,
		contextMgr:   contextMgr,
		orchestrator: orch,
		speaker:      spk,
		repo:         repo,
		embedder:     embedder,
		refs:         refs,
		id:           uuid.NewString(),
		events:       make(chan Event, 32),
		done:         make(chan struct{}),
		loopDone:     make(chan struct{}),
		language:     cfg.Speech.DefaultLanguage,
	}
}

func (s *Session) ID() string { return s.id }

// Events is consumed by the UI. The channel is buffered; when the UI falls
// behind, events are dropped rather than stalling the pipeline.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Start(ctx context.Context) error {
	createCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.repo.CreateSession(createCtx, s.id, s.Language()); err != nil {
		return err
	}

	go s.run(ctx)
	return nil
}

// Shutdown stops the loop and waits for an in-flight cycle to finish, so
// the final flush persists everything the pipeline produced.
func (s *Session) Shutdown(ctx context.Context) error {
	close(s.done)
	s.StopListening()

	select {
	case <-s.loopDone:
	case <-time.After(shutdownTimeout):
		log.FromCtx(ctx).Warn().Msg("session loop did not stop in time")
	}

	if err := s.source.Close(); err != nil {
		return err
	}
	return s.refs.Flush()
}

// StartListening opens the microphone feed.
func (s *Session) StartListening() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listening {
		return nil
	}
	if err := s.source.Start(); err != nil {
		return err
	}
	s.listening = true
	s.emit(Event{Kind: EventListening, Listening: true})
	return nil
}

// StopListening pauses the microphone feed. Already-captured chunks still
// drain through the pipeline.
func (s *Session) StopListening() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.listening {
		return
	}
	s.source.Stop()
	s.listening = false
	s.emit(Event{Kind: EventListening, Listening: false})
}

func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// SetLanguage switches the transcription and reply language mid-session.
func (s *Session) SetLanguage(name string) error {
	if _, ok := s.cfg.Speech.LanguageCodes[name]; !ok {
		return &core.ValidationError{Field: "language", Reason: "unknown language " + name}
	}
	s.mu.Lock()
	s.language = name
	s.mu.Unlock()
	return nil
}

func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// ClearHistory empties the conversation window and the speech queue. The
// durable transcript and long-term references are kept.
func (s *Session) ClearHistory() {
	s.contextMgr.Clear()
	s.speaker.Clear()
	s.emit(Event{Kind: EventCleared})
}

func (s *Session) run(ctx context.Context) {
	defer close(s.loopDone)

	logger := log.FromCtx(ctx)

	flushTicker := time.NewTicker(s.cfg.AutosaveInterval())
	defer flushTicker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-flushTicker.C:
			if err := s.refs.Flush(); err != nil {
				logger.Error().Err(err).Msg("autosave flush failed")
			}
		case samples, ok := <-s.source.Chunks():
			if !ok {
				return
			}
			s.handleChunk(ctx, samples)
		}
	}
}

// handleChunk runs one full cycle: transcribe, remember, respond, speak.
func (s *Session) handleChunk(ctx context.Context, samples []float32) {
	logger := log.FromCtx(ctx)
	language := s.Language()

	utterance, ok := s.transcribeChunk(ctx, samples, language)
	if !ok {
		return
	}

	if err := s.contextMgr.Append(utterance); err != nil {
		logger.Warn().Err(err).Msg("utterance rejected")
		return
	}
	s.persist(ctx, utterance)
	s.remember(ctx, utterance)
	s.emit(Event{Kind: EventUtterance, Utterance: utterance})

	bundle, err := s.contextMgr.BuildBundle(ctx, utterance.Text, language)
	if err != nil {
		if errors.Is(err, core.ErrRetrievalUnavailable) {
			logger.Warn().Err(err).Msg("continuing without references")
			s.emit(Event{Kind: EventNotice, Notice: "memory unavailable, answering without references"})
		} else {
			logger.Error().Err(err).Msg("context build failed")
		}
	}

	reply, findings := s.orchestrator.Respond(ctx, s.id, bundle)
	if reply.Text == s.cfg.AI.Persona.FallbackReply {
		s.emit(Event{Kind: EventNotice, Notice: "reply generation failed, spoke the fallback"})
	}
	if err := s.contextMgr.Append(reply); err != nil {
		logger.Warn().Err(err).Msg("reply rejected")
		return
	}
	s.persist(ctx, reply)
	s.remember(ctx, reply)

	refs := append(bundle.References, s.rememberFindings(ctx, findings)...)
	s.emit(Event{Kind: EventUtterance, Utterance: reply, References: refs})

	s.speaker.Say(ctx, reply.Text)
}

// rememberFindings stores web search results as long-term references and
// returns them in reference form for the UI.
func (s *Session) rememberFindings(ctx context.Context, findings []core.SearchResult) []core.Reference {
	logger := log.FromCtx(ctx)

	refs := make([]core.Reference, 0, len(findings))
	for _, f := range findings {
		if f.Snippet == "" {
			continue
		}
		ref := core.Reference{
			Text:      f.Snippet,
			Title:     f.Title,
			URL:       f.URL,
			Timestamp: time.Now().UTC(),
		}

		vec, err := s.embedder.Embed(ctx, f.Snippet)
		if err != nil {
			logger.Warn().Err(err).Msg("finding not remembered")
			refs = append(refs, ref)
			continue
		}
		meta := map[string]string{
			"session": s.id,
			"title":   f.Title,
			"url":     f.URL,
		}
		if ref.ID, err = s.refs.Add(ctx, f.Snippet, vec, meta); err != nil {
			logger.Warn().Err(err).Msg("finding not remembered")
		}
		refs = append(refs, ref)
	}
	return refs
}

func (s *Session) transcribeChunk(ctx context.Context, samples []float32, language string) (core.Utterance, bool) {
	logger := log.FromCtx(ctx)

	sttCtx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	code := s.cfg.Speech.LanguageCodes[language]
	transcript, err := s.transcriber.Transcribe(sttCtx, samples, s.cfg.Speech.SampleRate, code)
	if err != nil {
		logger.Warn().Err(err).Msg("chunk skipped")
		return core.Utterance{}, false
	}
	if transcript.Confidence < minConfidence {
		logger.Debug().Float64("confidence", transcript.Confidence).Msg("low confidence chunk skipped")
		return core.Utterance{}, false
	}

	text := textutil.Sanitize(transcript.Text)
	if text == "" {
		return core.Utterance{}, false
	}

	return core.Utterance{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Speaker:   s.cfg.Session.Speaker,
		Text:      text,
		Language:  language,
		Timestamp: time.Now().UTC(),
	}, true
}

func (s *Session) persist(ctx context.Context, u core.Utterance) {
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.repo.AddUtterance(pctx, u); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("utterance", u.ID).Msg("transcript write failed")
	}
}

// remember embeds the utterance into long-term memory. Failures are logged
// and the cycle continues; memory is best effort.
func (s *Session) remember(ctx context.Context, u core.Utterance) {
	logger := log.FromCtx(ctx)

	vec, err := s.embedder.Embed(ctx, u.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("embedding failed, utterance not remembered")
		return
	}
	meta := map[string]string{
		"session": u.SessionID,
		"speaker": u.Speaker,
	}
	if _, err := s.refs.Add(ctx, u.Text, vec, meta); err != nil {
		logger.Warn().Err(err).Msg("reference store write failed")
	}
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

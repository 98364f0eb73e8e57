package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/log"
)

// lookupMarker is how the model asks for a web search before answering.
const lookupMarker = "LOOKUP:"

// Orchestrator turns a context bundle into one persona utterance. Every
// failure path degrades to a spoken apology, never an aborted cycle.
type Orchestrator struct {
	cfg      *config.Config
	model    core.ChatModel
	search   core.SearchProvider
	prompter *Prompter
	timeout  time.Duration
}

func New(cfg *config.Config, model core.ChatModel, search core.SearchProvider) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		model:    model,
		search:   search,
		prompter: NewPrompter(cfg.Persona(), search != nil && cfg.AI.Search.Enabled),
		timeout:  cfg.ModelTimeout(),
	}
}

// Respond generates the persona's reply for one cycle, along with any web
// findings used to produce it. The model call runs under the configured
// deadline; on timeout or generation failure the fallback reply is returned
// instead so the conversation keeps moving.
func (o *Orchestrator) Respond(ctx context.Context, sessionID string, bundle core.ContextBundle) (core.Utterance, []core.SearchResult) {
	logger := log.FromCtx(ctx)

	reply, findings, err := o.generate(ctx, bundle)
	if err != nil {
		if errors.Is(err, core.ErrGenerationTimeout) {
			logger.Warn().Err(err).Msg("generation timed out, using fallback reply")
		} else {
			logger.Error().Err(err).Msg("generation failed, using fallback reply")
		}
		reply = o.cfg.AI.Persona.FallbackReply
	}

	return core.Utterance{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Speaker:   o.cfg.AI.Persona.Name,
		Text:      reply,
		Language:  bundle.Language,
		Timestamp: time.Now().UTC(),
	}, findings
}

func (o *Orchestrator) generate(ctx context.Context, bundle core.ContextBundle) (string, []core.SearchResult, error) {
	reply, err := o.chat(ctx, o.prompter.Build(bundle, nil))
	if err != nil {
		return "", nil, err
	}

	query, wantsLookup := strings.CutPrefix(strings.TrimSpace(reply), lookupMarker)
	if !wantsLookup || o.search == nil {
		return reply, nil, nil
	}

	findings := o.lookup(ctx, strings.TrimSpace(query))
	reply, err = o.chat(ctx, o.prompter.Build(bundle, findings))
	if err != nil {
		return "", nil, err
	}
	return reply, findings, nil
}

func (o *Orchestrator) chat(ctx context.Context, messages []core.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.model.Chat(ctx, messages)
}

// lookup runs the web search. A failed search is logged and the second
// generation pass proceeds without findings.
func (o *Orchestrator) lookup(ctx context.Context, query string) []core.SearchResult {
	logger := log.FromCtx(ctx)

	if query == "" {
		return nil
	}

	findings, err := o.search.Search(ctx, query, o.cfg.AI.Search.MaxResults)
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Msg("web search failed")
		return nil
	}

	logger.Debug().Str("query", query).Int("results", len(findings)).Msg("web search done")
	return findings
}

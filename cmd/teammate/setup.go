package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/teammate/internal/audio"
	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/internal/providers/embed"
	"github.com/sandevgo/teammate/internal/providers/llm"
	"github.com/sandevgo/teammate/internal/providers/search"
	"github.com/sandevgo/teammate/internal/providers/stt"
	"github.com/sandevgo/teammate/internal/providers/tts"
	"github.com/sandevgo/teammate/internal/service/contextmgr"
	"github.com/sandevgo/teammate/internal/service/orchestrator"
	"github.com/sandevgo/teammate/internal/service/session"
	"github.com/sandevgo/teammate/internal/service/speaker"
	"github.com/sandevgo/teammate/internal/storage/sqlite"
	"github.com/sandevgo/teammate/internal/storage/vector"
	"github.com/sandevgo/teammate/internal/transport/tui"
	"github.com/sandevgo/teammate/pkg/log"
	"github.com/sandevgo/teammate/pkg/srv"
)

// NewServices wires the full pipeline and returns the lifecycle services
// plus the terminal UI, which runs on the main goroutine.
func NewServices(ctx context.Context, cfg *config.Config) ([]srv.Service, *tui.TUI) {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	runtimePath := config.GetRuntimePath()
	if err := initEnv(ctx, runtimePath); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	creds := config.NewCredentials(ctx)

	// Storage
	db, err := sqlite.NewDB(ctx, filepath.Join(runtimePath, "teammate.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))
	transcripts := sqlite.NewTranscriptsRepo(db)

	refs, err := vector.New(ctx,
		filepath.Join(runtimePath, cfg.Memory.VectorDB.PersistDirectory),
		cfg.Memory.VectorDB.MaxElements,
		cfg.FlushInterval(),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize reference store")
	}
	services = append(services, refs)

	// Collaborators
	model, err := llm.New(cfg.AI.Model, creds)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize language model")
	}

	embedder := embed.NewOpenAI(creds.OpenAIAPIKey, cfg.AI.Embedding.Model)
	transcriber := stt.NewWhisper(creds.OpenAIAPIKey)

	synth, err := tts.New(cfg, creds)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize speech synthesis")
	}

	var searcher core.SearchProvider
	if cfg.AI.Search.Enabled && creds.TavilyAPIKey != "" {
		searcher = search.NewTavily(creds.TavilyAPIKey, cfg.AI.Search)
	}

	// Audio in
	source, err := audio.NewCapture(cfg.Speech.SampleRate, cfg.ChunkDuration())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open audio capture")
	}

	// Services
	mgr := contextmgr.NewManager(cfg, embedder, refs)
	orch := orchestrator.New(cfg, model, searcher)
	spk := speaker.New(synth)
	services = append(services, spk)

	sess := session.New(cfg, source, transcriber, mgr, orch, spk, transcripts, embedder, refs)
	services = append(services, sess)

	return services, tui.New(cfg, sess, creds.Status())
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}

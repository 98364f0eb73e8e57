package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/pkg/log"
	"github.com/sandevgo/teammate/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Join a meeting",
	Long:  `Starts the audio pipeline, the memory services, and the terminal UI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// The UI owns the terminal, so logs go to a file.
		logOut, closeLog, err := openLogOutput(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		level := cfg.Logging.Level
		if debug || config.IsDebug() {
			level = "debug"
		}
		var flushLog func()
		ctx, flushLog = log.NewContextWithLogger(ctx, level, logOut)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting teammate")

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		services, ui := NewServices(ctx, cfg)
		srv.StartServices(ctx, services)

		stopped := make(chan struct{})
		go func() {
			srv.ShutdownServices(ctx, services)
			ui.Quit()
			close(stopped)
		}()

		if err := ui.Run(cancel); err != nil {
			return err
		}

		<-stopped
		logger.Info().Msg("teammate has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(config.GetRuntimePath(), "config.yaml")
	}
	return config.Load(path)
}

func openLogOutput(cfg *config.Config) (io.Writer, func(), error) {
	path := cfg.Logging.File
	if path == "" {
		path = filepath.Join(config.GetRuntimePath(), "teammate.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

// NewContextWithLogger configures the global zerolog logger and attaches it
// to the context. The returned func flushes the diode writer on shutdown.
func NewContextWithLogger(ctx context.Context, level string, out io.Writer) (context.Context, func()) {
	zerolog.SetGlobalLevel(parseLevel(level))

	if out == nil {
		out = os.Stderr
	}

	// Non-blocking ring buffer so logging never stalls the audio loop.
	wr := diode.NewWriter(out, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
	})

	console := zerolog.ConsoleWriter{
		Out:        wr,
		TimeFormat: time.DateTime,
	}

	logger := zerolog.New(console).With().Timestamp().Logger()
	log.Logger = logger

	return logger.WithContext(ctx), func() {
		wr.Close()
	}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func FromCtx(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

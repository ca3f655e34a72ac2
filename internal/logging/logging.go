// Package logging configures zerolog for the process and hands out pass
// scoped loggers.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is the [log] section of the configuration.
type Config struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Setup installs the global logger. Unknown levels fall back to info.
func Setup(cfg Config) {
	SetupWriter(cfg, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(cfg Config, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// Pass describes one reduction pass over a conversation.
type Pass struct {
	ID             string
	Kind           string // transcript | export
	ConversationID uuid.UUID
	StartedAt      time.Time
}

// StartPass derives a logger tagged with a fresh pass id, the pass kind and
// the conversation, and stores it in the returned context. Code on the pass
// path logs through zerolog.Ctx(ctx).
func StartPass(ctx context.Context, kind string, conversationID uuid.UUID) (context.Context, *Pass) {
	p := &Pass{
		ID:             uuid.NewString(),
		Kind:           kind,
		ConversationID: conversationID,
		StartedAt:      time.Now(),
	}
	logger := zerolog.Ctx(ctx).With().
		Str("pass_id", p.ID).
		Str("pass", kind).
		Str("conversation_id", conversationID.String()).
		Logger()
	return logger.WithContext(ctx), p
}

// Finish logs the end of a pass with its duration and any extra fields.
func (p *Pass) Finish(ctx context.Context, fields map[string]interface{}) {
	zerolog.Ctx(ctx).Debug().
		Fields(fields).
		Dur("duration", time.Since(p.StartedAt)).
		Msg("Pass finished")
}

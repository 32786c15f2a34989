// Package logging builds the zap logger shared by dexcheck commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/dexcheck/internal/config"
)

// New builds a logger writing to stderr. Format "json" uses zap's production
// encoder, anything else the console encoder. verbose forces debug level.
func New(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger, nil
}

// ParserWarn adapts a logger to the parser's warning hook.
func ParserWarn(log *zap.Logger, title string) func(msg, context string) {
	return func(msg, context string) {
		log.Warn("Malformed wikitext",
			zap.String("article", title),
			zap.String("problem", msg),
			zap.String("context", context))
	}
}

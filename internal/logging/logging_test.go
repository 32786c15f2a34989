package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/dexcheck/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		verbose bool
		want    zapcore.Level
		wantErr bool
	}{
		{"console info", config.LogConfig{Level: "info", Format: "console"}, false, zapcore.InfoLevel, false},
		{"json warn", config.LogConfig{Level: "warn", Format: "json"}, false, zapcore.WarnLevel, false},
		{"verbose", config.LogConfig{Level: "error", Format: "console"}, true, zapcore.DebugLevel, false},
		{"bad level", config.LogConfig{Level: "loud", Format: "console"}, false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg, tt.verbose)
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if !log.Core().Enabled(tt.want) {
				t.Errorf("level %v not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && log.Core().Enabled(tt.want-1) {
				t.Errorf("level %v enabled, want %v minimum", tt.want-1, tt.want)
			}
		})
	}
}

func TestParserWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ParserWarn(zap.New(core), "Ivysaur")("unterminated template", "{{unclosed|template")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["article"] != "Ivysaur" || fields["problem"] != "unterminated template" || fields["context"] != "{{unclosed|template" {
		t.Errorf("fields = %v", fields)
	}
}

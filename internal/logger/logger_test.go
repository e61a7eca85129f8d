package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/logger"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		logging   config.LoggingConfig
		env       string
		wantLevel zapcore.Level
	}{
		{"debug console", config.LoggingConfig{Level: "debug", Format: "console"}, "development", zapcore.DebugLevel},
		{"json production", config.LoggingConfig{Level: "warn", Format: "json"}, "production", zapcore.WarnLevel},
		{"invalid level falls back to info", config.LoggingConfig{Level: "loud"}, "development", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.NewLogger(&tt.logging, &config.AppConfig{Name: "test", Environment: tt.env})
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.wantLevel))
			assert.False(t, log.Core().Enabled(tt.wantLevel-1))
		})
	}
}

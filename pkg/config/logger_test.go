package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "debug", level: "debug", wantLevel: zapcore.DebugLevel},
		{name: "info", level: "info", wantLevel: zapcore.InfoLevel},
		{name: "warn", level: "warn", wantLevel: zapcore.WarnLevel},
		{name: "error", level: "error", wantLevel: zapcore.ErrorLevel},
		{name: "empty-defaults-to-info", level: "", wantLevel: zapcore.InfoLevel},
		{name: "invalid", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}

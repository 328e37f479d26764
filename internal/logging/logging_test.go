package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		debug bool
		level zapcore.Level
		on    bool
	}{
		{debug: false, level: zapcore.InfoLevel, on: false},
		{debug: false, level: zapcore.WarnLevel, on: true},
		{debug: true, level: zapcore.DebugLevel, on: true},
	}
	for _, tt := range tests {
		log, err := New(tt.debug)
		require.NoError(t, err)
		assert.Equal(t, tt.on, log.Desugar().Core().Enabled(tt.level), "debug=%v level=%s", tt.debug, tt.level)
	}
}

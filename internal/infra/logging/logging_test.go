package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		for _, dev := range []bool{true, false} {
			l, err := New(in, dev)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(want), "%q dev=%v", in, dev)
			if want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(want-1), "%q dev=%v", in, dev)
			}
		}
	}
}

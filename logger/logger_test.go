package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		name          string
		log           func(Logger, string)
		expectedLevel zapcore.Level
	}{
		{"Debug", func(l Logger, msg string) { l.Debug(msg) }, zapcore.DebugLevel},
		{"Info", func(l Logger, msg string) { l.Info(msg) }, zapcore.InfoLevel},
		{"Warn", func(l Logger, msg string) { l.Warn(msg) }, zapcore.WarnLevel},
		{"Error", func(l Logger, msg string) { l.Error(msg) }, zapcore.ErrorLevel},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dut, logs := NewObserverLogger("debug")
			const testMessage = "ABC"
			tc.log(dut, testMessage)
			require.Equal(t, 1, logs.Len())
			actual := logs.All()[0]
			require.Equal(t, testMessage, actual.Message)
			require.Equal(t, tc.expectedLevel, actual.Level)
		})
	}
}

func TestWith(t *testing.T) {
	dut, logs := NewObserverLogger("info")
	dut.With(zap.String("session", "s1")).Info("hello", zap.Int("k", 3))
	dut.Debug("filtered")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, map[string]interface{}{"session": "s1", "k": int64(3)}, logs.All()[0].ContextMap())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		for _, level := range []string{"none", "debug", "info", "warn", "error"} {
			l, err := NewLogger(format, level)
			require.NoError(t, err, "%s/%s", format, level)
			require.NotNil(t, l)
		}
	}
	_, err := NewLogger("text", "verbose")
	require.Error(t, err)
	_, err = NewLogger("xml", "info")
	require.Error(t, err)
	require.Panics(t, func() { MustNewLogger("text", "verbose") })
}

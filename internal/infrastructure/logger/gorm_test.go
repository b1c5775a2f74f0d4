package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func selectUsers() (string, int64) {
	return "SELECT * FROM app_users WHERE app_id = ?", 5
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gl, _ := observedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)
}

func TestNewGormLogger_Options(t *testing.T) {
	gl, _ := observedGormLogger(zapcore.InfoLevel, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogModeLeavesOriginalUnchanged(t *testing.T) {
	gl, _ := observedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	lowered := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	loweredGl, ok := lowered.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, loweredGl.logLevel)
}

func TestGormLogger_LevelGating(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.DebugLevel, gormlogger.Info)
	gl.Info(context.Background(), "migrating %s", "app_users")
	require.Len(t, recorded.All(), 1)
	assert.Contains(t, recorded.All()[0].Message, "migrating app_users")

	silent, silentLogs := observedGormLogger(zapcore.DebugLevel, gormlogger.Silent)
	silent.Info(context.Background(), "suppressed")
	silent.Warn(context.Background(), "suppressed")
	silent.Error(context.Background(), "suppressed")
	assert.Empty(t, silentLogs.All())
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), selectUsers, errors.New("connection reset"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "SQL Error", logs[0].Message)
}

func TestGormLogger_Trace_RecordNotFoundIgnored(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.ErrorLevel, gormlogger.Error,
		WithIgnoreRecordNotFoundError(true))

	gl.Trace(context.Background(), time.Now(), selectUsers, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.WarnLevel, gormlogger.Warn,
		WithSlowThreshold(time.Nanosecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second), selectUsers, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SLOW SQL")
}

func TestGormLogger_Trace_NormalQuery(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), selectUsers, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "SQL Query", logs[0].Message)
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.DebugLevel, gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), selectUsers, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_CorrelationFields(t *testing.T) {
	gl, recorded := observedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	ctx = context.WithValue(ctx, AppIDKey, "app-7")
	gl.Trace(ctx, time.Now(), selectUsers, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)

	got := map[string]string{}
	for _, field := range logs[0].Context {
		if field.Key == "request_id" || field.Key == "app_id" {
			got[field.Key] = field.String
		}
	}
	assert.Equal(t, "req-42", got["request_id"])
	assert.Equal(t, "app-7", got["app_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}

func TestGormLoggerImplementsInterface(t *testing.T) {
	gl, _ := observedGormLogger(zapcore.InfoLevel, gormlogger.Info)
	var _ gormlogger.Interface = gl
}

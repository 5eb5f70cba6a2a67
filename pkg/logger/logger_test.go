package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshop/pkg/logger"
)

func TestNewLogger_Environments(t *testing.T) {
	tests := []struct {
		name  string
		env   logger.Environment
		level string
	}{
		{name: "development default level", env: logger.Development, level: ""},
		{name: "production default level", env: logger.Production, level: ""},
		{name: "production debug level", env: logger.Production, level: "debug"},
		{name: "development warn level", env: logger.Development, level: "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.NewLogger(tt.env, tt.level)
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	log, err := logger.NewLogger(logger.Production, "loud")

	assert.Error(t, err)
	assert.Nil(t, log)
	assert.Contains(t, err.Error(), "parsing log level")
}

func TestFromContext(t *testing.T) {
	log, err := logger.NewLogger(logger.Development, "")
	require.NoError(t, err)

	ctx := logger.NewContext(context.Background(), log)

	got, err := logger.FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, log, got)

	_, err = logger.FromContext(context.Background())
	assert.ErrorIs(t, err, logger.ErrLoggerNotFound)
}

func TestLog_FallsBackWithoutContextLogger(t *testing.T) {
	got := logger.Log(context.Background())
	require.NotNil(t, got)

	// Logging через fallback не должно паниковать.
	got.Debug(context.Background(), "fallback logger message")
}

func TestRequestIDContext(t *testing.T) {
	ctx := logger.NewRequestIDContext(context.Background(), "req-42")

	id, ok := logger.GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-42", id)

	generated := logger.NewRequestIDContext(context.Background(), "")
	id, ok = logger.GetRequestID(generated)
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

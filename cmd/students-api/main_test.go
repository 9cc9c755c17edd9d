package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	store, err := openStorage(ctx, &config.Config{Storage: config.Storage{
		Backend: config.BackendSQLite,
		Path:    filepath.Join(t.TempDir(), "students.db"),
	}})
	require.NoError(t, err)
	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.Close(ctx))

	_, err = openStorage(ctx, &config.Config{Storage: config.Storage{Backend: "postgres"}})
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{"dev", "staging", "prod", ""} {
		assert.NotNil(t, setupLogger(env), env)
	}
	assert.False(t, setupLogger("prod").Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, setupLogger("dev").Enabled(context.Background(), slog.LevelDebug))
}

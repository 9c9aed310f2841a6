package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "arcade.db"))
	t.Setenv("ADMIN_PASSWORD", "")
}

func TestRun(t *testing.T) {
	setupEnv(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"migrate", "up"}, &out))
	assert.NotContains(t, out.String(), "[ ]")

	out.Reset()
	require.NoError(t, run(ctx, []string{"migrate", "down"}, &out))
	assert.Equal(t, 1, strings.Count(out.String(), "[ ]"))

	out.Reset()
	require.NoError(t, run(ctx, []string{"migrate", "up"}, &out))

	out.Reset()
	require.NoError(t, run(ctx, []string{"seed-locations"}, &out))
	assert.Equal(t, "Seeded 3 locations\n", out.String())
	out.Reset()
	require.NoError(t, run(ctx, []string{"seed-locations"}, &out))
	assert.Equal(t, "Seeded 0 locations\n", out.String())

	out.Reset()
	require.NoError(t, run(ctx, []string{"create-admin", "-username", "owner", "-email", "owner@example.com", "-password", "tilt-warning"}, &out))
	assert.Contains(t, out.String(), `Created admin user "owner"`)

	err := run(ctx, []string{"create-admin", "-username", "owner2", "-email", "o2@example.com", "-password", "short"}, &out)
	assert.Error(t, err)
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	for _, args := range [][]string{nil, {"bogus"}, {"migrate"}, {"migrate", "to"}} {
		assert.ErrorIs(t, run(ctx, args, &out), errUsage, "args %v", args)
	}
}

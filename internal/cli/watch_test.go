// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/config"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
	"github.com/jeranaias/rigrun-ide/internal/router"
	"github.com/jeranaias/rigrun-ide/internal/server"
)

// =============================================================================
// RELOAD TESTS
// =============================================================================

func (f *fixture) openApp() *app {
	f.t.Helper()
	_, args, err := Parse([]string{"route", "--config", f.path, "x"})
	require.NoError(f.t, err)
	a, err := openApp(&Env{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}, args)
	require.NoError(f.t, err)
	f.t.Cleanup(a.close)
	return a
}

func (f *fixture) rewrite(mutate func(*config.Config)) {
	f.t.Helper()
	cfg, err := config.LoadFromPath(f.path)
	require.NoError(f.t, err)
	mutate(cfg)
	require.NoError(f.t, config.Save(cfg, f.path))
}

func TestAppReloadRebuildsStack(t *testing.T) {
	f := newFixture(t, nil)
	a := f.openApp()
	ctx := context.Background()
	first := a.router

	res, err := first.Route(ctx, router.RoutingContext{Task: "implement the parser"})
	require.NoError(t, err)
	assert.Equal(t, catalog.ModelTypeOnPrem, res.ModelType)

	movedLog := filepath.Join(f.dir, "audit", "moved.jsonl")
	f.rewrite(func(c *config.Config) {
		c.OnPrem.Endpoints = []onprem.Endpoint{{Name: "gone", URL: "http://127.0.0.1:1"}}
		c.Audit.Path = movedLog
	})

	r, health, err := a.reload()
	require.NoError(t, err)
	require.NotSame(t, first, r)
	assert.Same(t, r, a.router)
	assert.NotNil(t, health)

	res, err = r.Route(ctx, router.RoutingContext{Task: "implement the parser"})
	require.NoError(t, err)
	assert.Equal(t, catalog.ModelTypeCloud, res.ModelType)
	assert.Equal(t, router.NoteNoOnPremModel, res.Reason)

	before, err := audit.ReadJSONL(f.auditLog)
	require.NoError(t, err)
	assert.Len(t, before, 1)
	after, err := audit.ReadJSONL(movedLog)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestAppReloadKeepsStackOnBadConfig(t *testing.T) {
	f := newFixture(t, nil)
	a := f.openApp()
	first := a.router

	require.NoError(t, os.WriteFile(f.path, []byte("[compliance\nstrict_mode = "), 0600))
	_, _, err := a.reload()
	require.Error(t, err)
	assert.Same(t, first, a.router)

	// The audit sink is still open.
	_, err = first.Route(context.Background(), router.RoutingContext{Task: "fix the bug"})
	require.NoError(t, err)
	entries, err := audit.ReadJSONL(f.auditLog)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReloadServerSwapsRouter(t *testing.T) {
	f := newFixture(t, nil)
	a := f.openApp()
	srv := server.New(a.router, server.Options{Health: a.provider.Health()})

	good, err := os.ReadFile(f.path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.path, []byte("not toml ["), 0600))
	reloadServer(a, srv)
	assert.Same(t, a.router, srv.Router(), "failed reload leaves the server alone")
	require.NoError(t, os.WriteFile(f.path, good, 0600))

	f.rewrite(func(c *config.Config) { c.Cloud.DefaultModel = "openai/gpt-4o" })
	first := srv.Router()
	reloadServer(a, srv)
	assert.NotSame(t, first, srv.Router())
	assert.Same(t, a.router, srv.Router())
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# v1\n"), 0600))

	var calls atomic.Int32
	w, err := watchConfig(path, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("# v2\n"), 0600))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Atomic save: write a temp file and rename it over the config.
	tmp := filepath.Join(dir, ".config.toml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("# v3\n"), 0600))
	require.NoError(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcherDebouncesAndCloses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	var calls atomic.Int32
	w, err := watchConfig(path, 150*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0600))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, []byte("late"), 0600))
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWatchConfigMissingDir(t *testing.T) {
	_, err := watchConfig(filepath.Join(t.TempDir(), "nope", "config.toml"), time.Millisecond, func() {})
	require.Error(t, err)
}

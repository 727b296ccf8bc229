package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edom-dev/edom/internal/config"
	"github.com/edom-dev/edom/pkg/rows"
	"github.com/edom-dev/edom/pkg/snapshot"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestDefaultBenchScenario(t *testing.T) {
	for _, backend := range []string{rows.BackendMemdom, rows.BackendNoop, rows.BackendRemote} {
		t.Run(backend, func(t *testing.T) {
			sc, err := benchScenario("", 20)
			require.NoError(t, err)
			sc.Backend = backend

			report, err := sc.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, report.Steps, 10)
			assert.Equal(t, 20, report.Steps[0].Rows)
			assert.Equal(t, 10, report.Steps[5].Rows, "ten rows removed")
			assert.Equal(t, 0, report.Steps[9].Rows)
		})
	}
}

func TestBenchCommand(t *testing.T) {
	path := writeConfig(t, "bench:\n  rows: 12\n")
	out, err := execute(t, "--config", path, "bench", "--backend", "noop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "default (noop)\n"), out)
	assert.Contains(t, out, "swaprows")
	assert.Contains(t, out, "total ")
}

func TestBenchCommandScenarioFile(t *testing.T) {
	out, err := execute(t, "bench", "--scenario", "../../pkg/rows/testdata/remote.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "(remote)")

	_, err = execute(t, "bench", "--scenario", "missing.yaml")
	assert.Error(t, err)
}

func TestCycleMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name    string
		metrics bool
		tracing bool
		want    int
	}{
		{"logging only", false, false, 1},
		{"metrics", true, false, 2},
		{"everything", true, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Metrics.Enabled = tt.metrics
			cfg.Tracing.Enabled = tt.tracing
			mws := cycleMiddleware(cfg, prometheus.NewRegistry(), logger, time.Second)
			assert.Len(t, mws, tt.want)
		})
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.New()
	cfg.Log.Level = "error"

	for _, name := range appNames() {
		srv, err := newServer(context.Background(), cfg, name, time.Second)
		require.NoError(t, err, name)
		sess, err := srv.NewSession()
		require.NoError(t, err, name)
		assert.NotEmpty(t, sess.HTML(), name)
	}

	_, err := newServer(context.Background(), cfg, "nope", time.Second)
	assert.ErrorContains(t, err, `unknown app "nope"`)
}

func TestSnapshotCommands(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  driver: disk\n  disk:\n    dir: snaps\n")
	store, err := snapshot.NewDiskStore(filepath.Join(filepath.Dir(path), "snaps"))
	require.NoError(t, err)

	snap := snapshot.New("sess-1", []byte("<p>hi</p>"))
	require.NoError(t, store.Save(context.Background(), snap))

	out, err := execute(t, "--config", path, "snapshot", "get", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", out)

	file := filepath.Join(t.TempDir(), "out.html")
	_, err = execute(t, "--config", path, "snapshot", "get", snap.ID, "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))

	_, err = execute(t, "--config", path, "snapshot", "cleanup")
	assert.Error(t, err, "no max age configured")

	_, err = execute(t, "--config", path, "snapshot", "delete", snap.ID)
	require.NoError(t, err)
	_, err = execute(t, "--config", path, "snapshot", "get", snap.ID)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestSnapshotNeedsDriver(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	_, err := execute(t, "--config", path, "snapshot", "cleanup", "--max-age", "1h")
	assert.ErrorContains(t, err, "snapshot.driver is not set")
}

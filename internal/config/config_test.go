package config

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/snapshot"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if !cfg.Engine.ListCloning || cfg.Engine.PartialClone {
		t.Errorf("Engine = %+v, want list cloning on and partial clone off", cfg.Engine)
	}
	if cfg.Bench.Rows != DefaultRows {
		t.Errorf("Bench.Rows = %d, want %d", cfg.Bench.Rows, DefaultRows)
	}
	if cfg.Snapshot.Driver != DriverNone {
		t.Errorf("Snapshot.Driver = %q, want none", cfg.Snapshot.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if errs.Code(err) != "E160" {
		t.Fatalf("missing config: got %v, want E160", err)
	}

	configYAML := `
server:
  address: "127.0.0.1:9000"
  idle_timeout: 90s
  max_sessions: 10
  allowed_origins: ["https://example.com"]
engine:
  partial_clone: true
log:
  level: DEBUG
  format: json
snapshot:
  driver: disk
  max_age: 24h
bench:
  rows: 250
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Server.IdleTimeout != 90*time.Second {
		t.Errorf("Server.IdleTimeout = %v, want 90s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want default 10s", cfg.Server.WriteTimeout)
	}
	if !cfg.Engine.ListCloning || !cfg.Engine.PartialClone {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want lowercased debug", cfg.Log.Level)
	}
	if cfg.Snapshot.MaxAge != 24*time.Hour {
		t.Errorf("Snapshot.MaxAge = %v", cfg.Snapshot.MaxAge)
	}
	if cfg.Bench.Rows != 250 {
		t.Errorf("Bench.Rows = %d", cfg.Bench.Rows)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
		want string
	}{
		{"not yaml", "server: [", "E161", ""},
		{"unknown key", "server:\n  port: 80\n", "E161", "port"},
		{"bad duration", "server:\n  idle_timeout: soon\n", "E161", ""},
		{"negative timeout", "server:\n  read_timeout: -1s\n", "E162", "server.read_timeout"},
		{"negative sessions", "server:\n  max_sessions: -1\n", "E162", "max_sessions"},
		{"bad origin", "server:\n  allowed_origins: [example.com]\n", "E162", "allowed_origins"},
		{"partial without cloning", "engine:\n  list_cloning: false\n  partial_clone: true\n", "E162", "partial_clone"},
		{"bad level", "log:\n  level: trace\n", "E162", "log.level"},
		{"bad format", "log:\n  format: xml\n", "E162", "log.format"},
		{"bad driver", "snapshot:\n  driver: ftp\n", "E162", "snapshot.driver"},
		{"s3 without bucket", "snapshot:\n  driver: s3\n", "E162", "bucket"},
		{"s3 half credentials", "snapshot:\n  driver: s3\n  s3:\n    bucket: b\n    access_key_id: k\n", "E162", "secret_access_key"},
		{"negative rows", "bench:\n  rows: -5\n", "E162", "bench.rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errs.Code(err); got != tt.code {
				t.Fatalf("code = %q, want %q (%v)", got, tt.code, err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Server.Title = "rows"
	cfg.Server.HeartbeatInterval = 5 * time.Second
	cfg.Snapshot.Driver = DriverS3
	cfg.Snapshot.S3.Bucket = "bucket"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q", cfg.Path())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Server.Title != "rows" || loaded.Server.HeartbeatInterval != 5*time.Second {
		t.Errorf("server = %+v", loaded.Server)
	}
	if loaded.Snapshot.S3.Bucket != "bucket" {
		t.Errorf("snapshot = %+v", loaded.Snapshot)
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestServerConfig(t *testing.T) {
	cfg := New()
	cfg.Server.MaxSessions = 3
	cfg.Snapshot.MaxAge = time.Hour
	cfg.Server.AllowedOrigins = []string{"https://Example.com/"}

	sc := cfg.ServerConfig()
	if sc.MaxSessions != 3 || sc.SnapshotMaxAge != time.Hour {
		t.Errorf("server config = %+v", sc)
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://example.com", true},
		{"https://EXAMPLE.com", true},
		{"https://evil.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := sc.CheckOrigin(r); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if New().ServerConfig().CheckOrigin != nil {
		t.Error("no allowed origins should leave CheckOrigin to the server default")
	}
}

func TestEngineOptions(t *testing.T) {
	if got := len(New().EngineOptions()); got != 2 {
		t.Fatalf("EngineOptions() returned %d options, want 2", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":1`) {
		t.Errorf("json record missing: %q", out)
	}
}

func TestOpenSnapshots(t *testing.T) {
	ctx := context.Background()

	store, err := New().OpenSnapshots(ctx)
	if err != nil || store != nil {
		t.Fatalf("no driver: store=%v err=%v", store, err)
	}

	dir := t.TempDir()
	cfg, err := Parse([]byte("snapshot:\n  driver: disk\n  disk:\n    dir: snaps\n"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.configPath = filepath.Join(dir, ConfigFileName)
	store, err = cfg.OpenSnapshots(ctx)
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	if _, ok := store.(*snapshot.DiskStore); !ok {
		t.Fatalf("disk driver returned %T", store)
	}
	if _, err := os.Stat(filepath.Join(dir, "snaps")); err != nil {
		t.Errorf("snapshot dir not created relative to the config file: %v", err)
	}

	cfg, err = Parse([]byte("snapshot:\n  driver: s3\n  s3:\n    bucket: b\n    endpoint: http://localhost:9000\n"))
	if err != nil {
		t.Fatal(err)
	}
	store, err = cfg.OpenSnapshots(ctx)
	if err != nil {
		t.Fatalf("s3: %v", err)
	}
	if _, ok := store.(*snapshot.S3Store); !ok {
		t.Fatalf("s3 driver returned %T", store)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	if got != root {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
	if !Exists(root) || Exists(nested) {
		t.Error("Exists mismatch")
	}
}

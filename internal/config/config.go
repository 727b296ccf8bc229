package config

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/server"
	"github.com/edom-dev/edom/pkg/snapshot"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "edom.yaml"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultSnapshotDir is where the disk store keeps snapshots.
	DefaultSnapshotDir = "snapshots"

	// DefaultRows is the default row count of the bench app.
	DefaultRows = 1000
)

// Snapshot store drivers.
const (
	DriverNone = ""
	DriverDisk = "disk"
	DriverS3   = "s3"
)

// Config represents the complete edom.yaml configuration.
type Config struct {
	// Server contains HTTP and WebSocket settings.
	Server ServerConfig `yaml:"server"`

	// Engine contains reconciliation settings applied to every session.
	Engine EngineConfig `yaml:"engine"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log"`

	// Snapshot selects and configures the snapshot store.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `yaml:"tracing"`

	// Bench configures the bench command and the rows app.
	Bench BenchConfig `yaml:"bench"`

	configPath string
}

// ServerConfig contains HTTP and WebSocket settings.
type ServerConfig struct {
	Address           string        `yaml:"address"`
	Title             string        `yaml:"title"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	MaxEventQueue     int           `yaml:"max_event_queue"`
	MaxSessions       int           `yaml:"max_sessions"`
	DevMode           bool          `yaml:"dev_mode"`

	// AllowedOrigins restricts WebSocket upgrades to these origins.
	// Empty allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EngineConfig contains reconciliation settings.
type EngineConfig struct {
	// ListCloning lets keyed lists clone host subtrees when rows are added.
	ListCloning bool `yaml:"list_cloning"`

	// PartialClone defers resolution of cloned handles until first use.
	PartialClone bool `yaml:"partial_clone"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// SnapshotConfig selects the snapshot store.
type SnapshotConfig struct {
	// Driver is "", "disk" or "s3". Empty disables snapshots.
	Driver string `yaml:"driver"`

	// MaxAge removes snapshots older than this. Zero keeps them.
	MaxAge time.Duration `yaml:"max_age"`

	Disk DiskConfig `yaml:"disk"`
	S3   S3Config   `yaml:"s3"`
}

// DiskConfig configures the disk snapshot store.
type DiskConfig struct {
	Dir string `yaml:"dir"`
}

// S3Config configures the S3 snapshot store.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the cycle middleware.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes the cycle metrics.
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TracerName string `yaml:"tracer_name"`
}

// BenchConfig configures the bench command.
type BenchConfig struct {
	// Rows is the row count used by create and replace operations.
	Rows int `yaml:"rows"`

	// Scenario is a YAML scenario file run by the bench command.
	Scenario string `yaml:"scenario"`
}

// New creates a new Config with default values.
func New() *Config {
	d := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Address:           DefaultAddress,
			Title:             d.Title,
			ReadTimeout:       d.ReadTimeout,
			WriteTimeout:      d.WriteTimeout,
			IdleTimeout:       d.IdleTimeout,
			HandshakeTimeout:  d.HandshakeTimeout,
			HeartbeatInterval: d.HeartbeatInterval,
			ShutdownTimeout:   d.ShutdownTimeout,
			CleanupInterval:   d.CleanupInterval,
			MaxMessageSize:    d.MaxMessageSize,
			MaxEventQueue:     d.MaxEventQueue,
		},
		Engine: EngineConfig{
			ListCloning: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			Disk: DiskConfig{Dir: DefaultSnapshotDir},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "edom",
		},
		Tracing: TracingConfig{
			TracerName: "edom",
		},
		Bench: BenchConfig{
			Rows: DefaultRows,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for edom.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E160").
			WithDetail("Cannot read " + path).
			WithSuggestion("Create edom.yaml or pass --config with an existing file").
			Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E161").
			WithDetail(err.Error()).
			WithSuggestion("Check that edom.yaml is valid YAML and uses known keys")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.New("E162").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return errors.New("E162").Wrap(err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New("E160").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in values a file explicitly zeroed or left empty.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Snapshot.Driver = strings.ToLower(c.Snapshot.Driver)
	if c.Snapshot.Disk.Dir == "" {
		c.Snapshot.Disk.Dir = DefaultSnapshotDir
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "edom"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "edom"
	}
	if c.Bench.Rows == 0 {
		c.Bench.Rows = DefaultRows
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New("E162").WithDetailf(format, args...)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.handshake_timeout", c.Server.HandshakeTimeout},
		{"server.heartbeat_interval", c.Server.HeartbeatInterval},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"server.cleanup_interval", c.Server.CleanupInterval},
		{"snapshot.max_age", c.Snapshot.MaxAge},
	}
	for _, d := range durations {
		if d.d < 0 {
			return invalid("%s must not be negative, got %s", d.name, d.d)
		}
	}

	if c.Server.MaxSessions < 0 {
		return invalid("server.max_sessions must not be negative")
	}
	if c.Server.MaxEventQueue < 0 {
		return invalid("server.max_event_queue must not be negative")
	}
	if c.Server.MaxMessageSize < 0 {
		return invalid("server.max_message_size must not be negative")
	}
	for _, o := range c.Server.AllowedOrigins {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("server.allowed_origins: %q is not an origin like https://example.com", o)
		}
	}

	if c.Engine.PartialClone && !c.Engine.ListCloning {
		return invalid("engine.partial_clone requires engine.list_cloning")
	}

	if _, ok := levels[c.Log.Level]; !ok {
		return invalid("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}

	switch c.Snapshot.Driver {
	case DriverNone, DriverDisk:
	case DriverS3:
		if c.Snapshot.S3.Bucket == "" {
			return invalid("snapshot.s3.bucket is required for the s3 driver")
		}
		if (c.Snapshot.S3.AccessKeyID == "") != (c.Snapshot.S3.SecretAccessKey == "") {
			return invalid("snapshot.s3 needs both access_key_id and secret_access_key, or neither")
		}
	default:
		return invalid("snapshot.driver must be disk or s3, got %q", c.Snapshot.Driver)
	}

	if c.Bench.Rows < 0 {
		return invalid("bench.rows must not be negative")
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ServerConfig returns the server configuration. Zero values fall back to
// server.DefaultConfig inside server.New.
func (c *Config) ServerConfig() *server.Config {
	s := c.Server
	sc := &server.Config{
		Address:           s.Address,
		Title:             s.Title,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
		HandshakeTimeout:  s.HandshakeTimeout,
		HeartbeatInterval: s.HeartbeatInterval,
		ShutdownTimeout:   s.ShutdownTimeout,
		CleanupInterval:   s.CleanupInterval,
		MaxMessageSize:    s.MaxMessageSize,
		MaxEventQueue:     s.MaxEventQueue,
		MaxSessions:       s.MaxSessions,
		SnapshotMaxAge:    c.Snapshot.MaxAge,
		DevMode:           s.DevMode,
	}
	if len(s.AllowedOrigins) > 0 {
		sc.CheckOrigin = originChecker(s.AllowedOrigins)
	}
	return sc
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return set[strings.ToLower(origin)]
	}
}

// EngineOptions returns the engine options for every session.
func (c *Config) EngineOptions() []edom.Option {
	return []edom.Option{
		edom.WithListCloning(c.Engine.ListCloning),
		edom.WithPartialClone(c.Engine.PartialClone),
	}
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[c.Log.Level]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenSnapshots opens the configured snapshot store, or returns nil when
// snapshots are disabled. A relative disk dir is resolved against the
// config file's directory.
func (c *Config) OpenSnapshots(_ context.Context) (snapshot.Store, error) {
	switch c.Snapshot.Driver {
	case DriverDisk:
		dir := c.Snapshot.Disk.Dir
		if !filepath.IsAbs(dir) && c.Dir() != "" {
			dir = filepath.Join(c.Dir(), dir)
		}
		store, err := snapshot.NewDiskStore(dir)
		if err != nil {
			return nil, errors.New("E162").WithDetail("snapshot.disk.dir").Wrap(err)
		}
		return store, nil
	case DriverS3:
		s3 := c.Snapshot.S3
		client := snapshot.NewS3Client(snapshot.S3Config{
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			PathStyle:       s3.PathStyle,
		})
		return snapshot.NewS3Store(client, s3.Bucket, s3.Prefix), nil
	}
	return nil, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// edom.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E160").
				WithDetail("No edom.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and state locations.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	CachePath string `toml:"cache_path"`
}

// GDC contains configuration for the GDC metadata API.
type GDC struct {
	BaseURL  string `toml:"base_url"`
	PageSize int    `toml:"page_size"`
}

// Indexd contains connection settings for the indexd service.
type Indexd struct {
	Host     string `toml:"host"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Fetch contains HTTP client tuning shared by every remote call.
type Fetch struct {
	BackoffMS         []int   `toml:"backoff_ms"`
	JitterMS          int     `toml:"jitter_ms"`
	MaxConnsPerHost   int     `toml:"max_conns_per_host"`
	KeepAliveSeconds  int     `toml:"keepalive_seconds"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Pipeline contains batch execution settings.
type Pipeline struct {
	ChunkSize     int `toml:"chunk_size"`
	ProgressEvery int `toml:"progress_every"`
}

// Buckets maps bucket URLs (gs://name, s3://name) to the ACL applied to
// objects listed from them.
type Buckets struct {
	ACL     map[string][]string `toml:"acl"`
	ACLFile string              `toml:"acl_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for gdcmeta.
//
// Configuration sections by subsystem:
//   - Paths: output tree, log directory and metadata cache file
//   - GDC: metadata API base URL and bulk index page size
//   - Indexd: upsert target and credentials
//   - Fetch: retry schedule, connection pool and pacing
//   - Pipeline: chunk size and progress logging cadence
//   - Buckets: bucket to ACL mapping used by manifest parsers
//   - Logging: log format, level and rotating file output
type Config struct {
	Paths    Paths    `toml:"paths"`
	GDC      GDC      `toml:"gdc"`
	Indexd   Indexd   `toml:"indexd"`
	Fetch    Fetch    `toml:"fetch"`
	Pipeline Pipeline `toml:"pipeline"`
	Buckets  Buckets  `toml:"buckets"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gdcmeta.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output tree root and the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.CachePath); c.Paths.CachePath != "" && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}
	return nil
}

// Backoff returns the retry delay schedule as durations.
func (c *Config) Backoff() []time.Duration {
	out := make([]time.Duration, 0, len(c.Fetch.BackoffMS))
	for _, ms := range c.Fetch.BackoffMS {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

// Jitter returns the upper bound of the random delay added to each retry.
func (c *Config) Jitter() time.Duration {
	return time.Duration(c.Fetch.JitterMS) * time.Millisecond
}

// RequestTimeout returns the per-attempt HTTP timeout. Zero disables it.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// KeepAlive returns the idle connection keep-alive period.
func (c *Config) KeepAlive() time.Duration {
	return time.Duration(c.Fetch.KeepAliveSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gdcmeta", "gdc_index.db")
	}
	return "~/.cache/gdcmeta/gdc_index.db"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

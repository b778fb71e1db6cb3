package testsupport

import (
	"path/filepath"
	"testing"

	"gdcmeta/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries happen without delay and indexd credentials are cleared so tests never
// depend on the environment.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CachePath = filepath.Join(base, "cache", "gdc_index.db")
	cfgVal.Fetch.BackoffMS = []int{0}
	cfgVal.Fetch.JitterMS = 0
	cfgVal.Indexd.Host = ""
	cfgVal.Indexd.Username = ""
	cfgVal.Indexd.Password = ""
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{cfg: &cfgVal}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGDC points the config at a fake GDC API.
func WithGDC(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GDC.BaseURL = baseURL
	}
}

// WithIndexd sets the indexd host and credentials.
func WithIndexd(host, username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Indexd.Host = host
		b.cfg.Indexd.Username = username
		b.cfg.Indexd.Password = password
	}
}

// WithChunkSize overrides the pipeline chunk size and logs progress on every
// completion.
func WithChunkSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.ChunkSize = size
		b.cfg.Pipeline.ProgressEvery = 1
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

package config

const (
	defaultConfigPath       = "~/.config/gdcmeta/config.toml"
	defaultOutputDir        = "~/.local/share/gdcmeta/records"
	defaultLogDir           = "~/.local/share/gdcmeta/logs"
	defaultGDCBaseURL       = "https://api.gdc.cancer.gov"
	defaultGDCPageSize      = 5000
	defaultIndexdHost       = "https://nci-crdc.datacommons.io"
	defaultJitterMS         = 2000
	defaultMaxConnsPerHost  = 30
	defaultKeepAliveSeconds = 15
	defaultTimeoutSeconds   = 120
	defaultChunkSize        = 10
	defaultProgressEvery    = 100
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogMaxSizeMB     = 50
	defaultLogMaxBackups    = 5
	defaultLogMaxAgeDays    = 30
)

var defaultBackoffMS = []int{2000, 4000, 8000, 16000}

// Default returns a Config populated with repository defaults.
func Default() Config {
	backoff := make([]int, len(defaultBackoffMS))
	copy(backoff, defaultBackoffMS)
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			CachePath: defaultCachePath(),
		},
		GDC: GDC{
			BaseURL:  defaultGDCBaseURL,
			PageSize: defaultGDCPageSize,
		},
		Indexd: Indexd{
			Host: defaultIndexdHost,
		},
		Fetch: Fetch{
			BackoffMS:        backoff,
			JitterMS:         defaultJitterMS,
			MaxConnsPerHost:  defaultMaxConnsPerHost,
			KeepAliveSeconds: defaultKeepAliveSeconds,
			TimeoutSeconds:   defaultTimeoutSeconds,
		},
		Pipeline: Pipeline{
			ChunkSize:     defaultChunkSize,
			ProgressEvery: defaultProgressEvery,
		},
		Buckets: Buckets{
			ACL: map[string][]string{},
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}

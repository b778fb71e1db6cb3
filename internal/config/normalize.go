package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGDC()
	c.normalizeIndexd()
	c.normalizeFetch()
	c.normalizePipeline()
	if err := c.normalizeBuckets(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CachePath) == "" {
		c.Paths.CachePath = defaultCachePath()
	}
	if c.Paths.CachePath, err = expandPath(c.Paths.CachePath); err != nil {
		return fmt.Errorf("paths.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeGDC() {
	c.GDC.BaseURL = strings.TrimRight(strings.TrimSpace(c.GDC.BaseURL), "/")
	if c.GDC.BaseURL == "" {
		c.GDC.BaseURL = defaultGDCBaseURL
	}
	if c.GDC.PageSize <= 0 {
		c.GDC.PageSize = defaultGDCPageSize
	}
}

func (c *Config) normalizeIndexd() {
	c.Indexd.Host = strings.TrimRight(strings.TrimSpace(c.Indexd.Host), "/")
	if c.Indexd.Host != "" && !strings.Contains(c.Indexd.Host, "://") {
		c.Indexd.Host = "https://" + c.Indexd.Host
	}
	c.Indexd.Username = strings.TrimSpace(c.Indexd.Username)
	if c.Indexd.Username == "" {
		if value, ok := os.LookupEnv("INDEX_USERNAME"); ok {
			c.Indexd.Username = strings.TrimSpace(value)
		}
	}
	if c.Indexd.Password == "" {
		if value, ok := os.LookupEnv("INDEX_PASSWORD"); ok {
			c.Indexd.Password = value
		}
	}
}

func (c *Config) normalizeFetch() {
	if len(c.Fetch.BackoffMS) == 0 {
		c.Fetch.BackoffMS = append([]int(nil), defaultBackoffMS...)
	}
	if c.Fetch.JitterMS < 0 {
		c.Fetch.JitterMS = 0
	}
	if c.Fetch.MaxConnsPerHost <= 0 {
		c.Fetch.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if c.Fetch.KeepAliveSeconds <= 0 {
		c.Fetch.KeepAliveSeconds = defaultKeepAliveSeconds
	}
	if c.Fetch.TimeoutSeconds < 0 {
		c.Fetch.TimeoutSeconds = 0
	}
	if c.Fetch.RequestsPerSecond < 0 {
		c.Fetch.RequestsPerSecond = 0
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.ChunkSize <= 0 {
		c.Pipeline.ChunkSize = defaultChunkSize
	}
	if c.Pipeline.ProgressEvery <= 0 {
		c.Pipeline.ProgressEvery = defaultProgressEvery
	}
}

func (c *Config) normalizeBuckets() error {
	normalized := make(map[string][]string, len(c.Buckets.ACL))
	for bucket, acl := range c.Buckets.ACL {
		key := strings.TrimRight(strings.TrimSpace(bucket), "/")
		if key == "" {
			continue
		}
		normalized[key] = append(normalized[key], acl...)
	}
	c.Buckets.ACL = normalized
	if strings.TrimSpace(c.Buckets.ACLFile) == "" {
		c.Buckets.ACLFile = ""
		return nil
	}
	var err error
	if c.Buckets.ACLFile, err = expandPath(c.Buckets.ACLFile); err != nil {
		return fmt.Errorf("buckets.acl_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	file := strings.TrimSpace(c.Logging.File)
	if file != "" && !filepath.IsAbs(file) && !strings.HasPrefix(file, "~") && c.Paths.LogDir != "" {
		file = filepath.Join(c.Paths.LogDir, file)
	}
	var err error
	if c.Logging.File, err = expandPath(file); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
	return nil
}

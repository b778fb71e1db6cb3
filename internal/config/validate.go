package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Indexd credentials are not
// required here; commands that post records check them with ValidateIndexd.
func (c *Config) Validate() error {
	if err := c.validateGDC(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateBuckets(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateGDC() error {
	if err := validateURL("gdc.base_url", c.GDC.BaseURL); err != nil {
		return err
	}
	if c.GDC.PageSize <= 0 {
		return errors.New("gdc.page_size must be positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	for i, ms := range c.Fetch.BackoffMS {
		if ms < 0 {
			return fmt.Errorf("fetch.backoff_ms[%d] must not be negative", i)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"fetch.max_conns_per_host": c.Fetch.MaxConnsPerHost,
		"fetch.keepalive_seconds":  c.Fetch.KeepAliveSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.chunk_size":     c.Pipeline.ChunkSize,
		"pipeline.progress_every": c.Pipeline.ProgressEvery,
	})
}

func (c *Config) validateBuckets() error {
	for bucket, acl := range c.Buckets.ACL {
		if !strings.HasPrefix(bucket, "gs://") && !strings.HasPrefix(bucket, "s3://") {
			return fmt.Errorf("buckets.acl: %q must start with gs:// or s3://", bucket)
		}
		if len(acl) == 0 {
			return fmt.Errorf("buckets.acl: %q has an empty acl list", bucket)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// ValidateIndexd ensures indexd credentials are present for upsert commands.
func (c *Config) ValidateIndexd() error {
	if err := validateURL("indexd.host", c.Indexd.Host); err != nil {
		return err
	}
	if c.Indexd.Username == "" {
		return errors.New("indexd.username is required. Set INDEX_USERNAME env var or edit the config file")
	}
	if c.Indexd.Password == "" {
		return errors.New("indexd.password is required. Set INDEX_PASSWORD env var or edit the config file")
	}
	return nil
}

func validateURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

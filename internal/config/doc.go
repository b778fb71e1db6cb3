// Package config loads, normalizes, and validates gdcmeta configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// INDEX_PASSWORD. The Config type centralizes every knob the CLI needs, so the
// output tree, GDC endpoint, indexd credentials and retry tuning are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

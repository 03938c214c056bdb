package config

import (
	"fmt"
	"slices"
)

var (
	backends   = []string{"json", "sqlite", "s3"}
	logFormats = []string{"json", "console"}
)

// Validate checks cross-field rules. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("store.backend must be one of %v (got %q)", backends, c.Store.Backend)
	}
	if c.Store.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("store.backend s3 requires storage.bucket")
	}
	if c.Store.Backend != "s3" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}
	if c.Storage.GetTTL <= 0 || c.Storage.PutTTL <= 0 {
		return fmt.Errorf("storage ttls must be positive")
	}
	if c.Timeline.Curve <= 0 || c.Timeline.MinPull <= 0 || c.Timeline.Beads <= 0 {
		return fmt.Errorf("timeline curve, min_pull and beads must be positive")
	}
	return nil
}

// StorageConfigured reports whether uploads and signed reads are possible.
func (c *Config) StorageConfigured() bool {
	return c.Storage.Bucket != ""
}

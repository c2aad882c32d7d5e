package server

import (
	"time"

	"github.com/cyclopcam/dbh"
)

type Config struct {
	DB           dbh.DBConfig   `json:"db"`
	VideoStorage StorageConfig  `json:"videoStorage"`
	VideoCache   string         `json:"videoCache"` // Cache directory. Required for storage backends that can't seek (gcs).
	Pipeline     PipelineConfig `json:"pipeline"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket
}

type PipelineConfig struct {
	// Delay between classification milestones, in milliseconds. Default 2000.
	// The magnitude only affects how long classification appears to take.
	StepIntervalMS int `json:"stepIntervalMS"`

	// Titles containing any of these terms (case-insensitive) get flagged.
	Denylist []string `json:"denylist"`
}

var defaultDenylist = []string{"bomb", "attack", "kill", "gun"}

func (c *PipelineConfig) StepInterval() time.Duration {
	if c.StepIntervalMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.StepIntervalMS) * time.Millisecond
}

func (c *PipelineConfig) DenylistOrDefault() []string {
	if len(c.Denylist) == 0 {
		return defaultDenylist
	}
	return c.Denylist
}

// Package config defines the on-disk configuration surface the core reads
// (but never writes) at <repo_root>/.hashtrail/config.
package config

import (
	"fmt"

	"github.com/hashtrail/hashtrail/pkg/encoding"
	"github.com/hashtrail/hashtrail/pkg/linkpolicy"
)

// SharedMode controls the permission bits applied to objects written into a
// store shared between multiple users.
type SharedMode uint8

const (
	SharedModeDefault SharedMode = iota
	SharedModeGroup
	SharedModeAll
)

// UnmarshalText implements encoding.TextUnmarshaler so SharedMode can be
// read directly out of TOML.
func (s *SharedMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "default":
		*s = SharedModeDefault
	case "group":
		*s = SharedModeGroup
	case "all":
		*s = SharedModeAll
	default:
		return fmt.Errorf("unknown shared mode: %s", string(text))
	}
	return nil
}

// CacheConfig governs the object store and its link policy.
type CacheConfig struct {
	Type      []linkpolicy.Method `toml:"-"`
	TypeNames []string            `toml:"type"`
	Protected bool                `toml:"protected"`
	Shared    SharedMode          `toml:"shared"`
	Dir       string              `toml:"dir"`
}

// CoreConfig governs general pipeline behavior.
type CoreConfig struct {
	ChecksumJobs int `toml:"checksum_jobs"`
}

// StateConfig governs the state cache's size and eviction behavior.
type StateConfig struct {
	RowLimit        int `toml:"row_limit"`
	RowCleanupQuota int `toml:"row_cleanup_quota"`
}

// Config is the full parsed contents of a repository's configuration file.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Core  CoreConfig  `toml:"core"`
	State StateConfig `toml:"state"`
}

func methodFromName(name string) (linkpolicy.Method, error) {
	switch name {
	case "reflink":
		return linkpolicy.MethodReflink, nil
	case "hardlink":
		return linkpolicy.MethodHardlink, nil
	case "symlink":
		return linkpolicy.MethodSymlink, nil
	case "copy":
		return linkpolicy.MethodCopy, nil
	default:
		return 0, fmt.Errorf("unknown link type: %s", name)
	}
}

// Load reads and parses the configuration file at path, applying the same
// defaults DVC applies when a field is absent: the full reflink-to-copy
// fallback order, an unshared store, and the state cache's package
// defaults.
func Load(path string) (Config, error) {
	config := Config{
		Cache: CacheConfig{Protected: true},
		Core:  CoreConfig{ChecksumJobs: 0},
		State: StateConfig{
			RowLimit:        100000,
			RowCleanupQuota: 50,
		},
	}

	if err := encoding.LoadAndUnmarshalTOML(path, &config); err != nil {
		return Config{}, fmt.Errorf("unable to load configuration: %w", err)
	}

	if len(config.Cache.TypeNames) == 0 {
		config.Cache.Type = linkpolicy.DefaultOrder
	} else {
		methods := make([]linkpolicy.Method, len(config.Cache.TypeNames))
		for i, name := range config.Cache.TypeNames {
			method, err := methodFromName(name)
			if err != nil {
				return Config{}, fmt.Errorf("invalid cache.type entry: %w", err)
			}
			methods[i] = method
		}
		config.Cache.Type = methods
	}

	return config, nil
}

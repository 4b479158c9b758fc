package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashtrail/hashtrail/pkg/config"
	"github.com/hashtrail/hashtrail/pkg/filesystem"
	"github.com/hashtrail/hashtrail/pkg/hashing"
	"github.com/hashtrail/hashtrail/pkg/housekeeping"
	"github.com/hashtrail/hashtrail/pkg/linkpolicy"
	"github.com/hashtrail/hashtrail/pkg/logging"
	"github.com/hashtrail/hashtrail/pkg/objectstore"
	"github.com/hashtrail/hashtrail/pkg/statecache"
)

// repository bundles the collaborators every subcommand needs, opened
// against a single repository root.
type repository struct {
	root       string
	config     config.Config
	store      *objectstore.Store
	objectsDir string
	cache      *statecache.Cache
	policy     *linkpolicy.Policy
	algorithm  hashing.Algorithm
}

// openRepository resolves root (defaulting to the current directory),
// loads its configuration, and opens the object store and state cache it
// names. The repository metadata directory and its configuration file must
// already exist (as created by init); the objects and state subdirectories
// are created if absent.
func openRepository(root string) (*repository, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to determine working directory: %w", err)
		}
		root = cwd
	}

	configPath, err := filesystem.RepoDataDirectory(root, false)
	if err != nil {
		return nil, fmt.Errorf("unable to compute repository data directory: %w", err)
	}
	configPath = filepath.Join(configPath, filesystem.RepoConfigurationName)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration (did you run 'hashtrail init'?): %w", err)
	}

	objectsDir, err := filesystem.RepoDataDirectory(root, true, filesystem.RepoObjectsDirectoryName)
	if err != nil {
		return nil, fmt.Errorf("unable to compute object store directory: %w", err)
	}

	algorithm := hashing.AlgorithmMD5
	store := objectstore.New(objectsDir, algorithm, cfg.Cache.Protected, logging.RootLogger)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("unable to initialize object store: %w", err)
	}

	stateDir, err := filesystem.RepoDataDirectory(root, true, filesystem.RepoStateDirectoryName)
	if err != nil {
		return nil, fmt.Errorf("unable to compute state directory: %w", err)
	}
	cache, err := statecache.Open(filepath.Join(stateDir, "state.db"), cfg.State.RowLimit, cfg.State.RowCleanupQuota)
	if err != nil {
		return nil, fmt.Errorf("unable to open state cache: %w", err)
	}

	housekeeping.Housekeep(root, logging.RootLogger)

	return &repository{
		root:       root,
		config:     cfg,
		store:      store,
		objectsDir: objectsDir,
		cache:      cache,
		policy:     linkpolicy.New(cfg.Cache.Type),
		algorithm:  algorithm,
	}, nil
}

func (r *repository) Close() error {
	return r.cache.Close()
}

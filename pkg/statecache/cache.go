// Package statecache implements the persistent (inode, mtime, size) -> hash
// index and link registry used to skip rehashing unchanged files.
package statecache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hashtrail/hashtrail/pkg/hashinfo"
)

const (
	bucketState     = "state"
	bucketLinkState = "link_state"
	bucketInfo      = "state_info"

	infoKey = "info"

	// schemaVersion is bumped whenever the encoded record layout changes.
	// A mismatch against the stored version triggers a full rebuild rather
	// than an attempt to interpret stale bytes.
	schemaVersion = 1

	// DefaultRowLimit bounds the number of entries retained in the state
	// table before Dump evicts the oldest-accessed rows.
	DefaultRowLimit = 100000

	// DefaultRowCleanupQuota is the percentage of RowLimit freed by a single
	// eviction pass, so that eviction isn't triggered again on the very next
	// insert.
	DefaultRowCleanupQuota = 50
)

// Cache is the persistent state cache for a single repository. It is backed
// by an embedded single-writer store and is not safe for concurrent use by
// multiple processes without the caller holding the repository lock.
type Cache struct {
	db              *bolt.DB
	rowLimit        int
	rowCleanupQuota int
}

// Entry is a row of the state table: the hash recorded for a file the last
// time its identity (inode, mtime, size) was observed.
type Entry struct {
	Inode        uint64
	ModTime      time.Time
	Size         uint64
	Hash         hashinfo.HashInfo
	LastAccessed time.Time
}

// LinkEntry is a row of the link registry: the (inode, mtime) a workspace
// file had the last time it was linked out of the object store.
type LinkEntry struct {
	Path    string
	Inode   uint64
	ModTime time.Time
}

// Open opens (creating if necessary) the state cache at path. rowLimit and
// rowCleanupQuota of zero select the defaults.
func Open(path string, rowLimit, rowCleanupQuota int) (*Cache, error) {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if rowCleanupQuota <= 0 {
		rowCleanupQuota = DefaultRowCleanupQuota
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("unable to create state cache directory: %w", err)
	}

	db, err := openAndValidate(path)
	if err != nil {
		return nil, err
	}

	return &Cache{db: db, rowLimit: rowLimit, rowCleanupQuota: rowCleanupQuota}, nil
}

// openAndValidate opens the bbolt database, creating buckets as needed, and
// resets the store if it is corrupt or carries a stale schema version. This
// mirrors the retry-once-then-recreate discipline of DVC's state database:
// a corrupt cache is a performance problem, never a correctness one, so we
// recover from it locally instead of propagating the error.
func openAndValidate(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if resetErr := os.Remove(path); resetErr == nil {
			db, err = bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
		}
		if err != nil {
			return nil, fmt.Errorf("unable to open state cache: %w", err)
		}
	}

	needsReset := false
	err = db.View(func(tx *bolt.Tx) error {
		info := tx.Bucket([]byte(bucketInfo))
		if info == nil {
			return nil
		}
		version := info.Get([]byte(infoKey))
		if len(version) != 8 || binary.BigEndian.Uint64(version) != schemaVersion {
			needsReset = true
		}
		return nil
	})
	if err != nil {
		needsReset = true
	}

	if needsReset {
		db.Close()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to remove stale state cache: %w", err)
		}
		db, err = bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("unable to recreate state cache: %w", err)
		}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketState, bucketLinkState, bucketInfo} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		info := tx.Bucket([]byte(bucketInfo))
		versionBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(versionBytes, schemaVersion)
		return info.Put([]byte(infoKey), versionBytes)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize state cache buckets: %w", err)
	}

	return db, nil
}

// Close releases the underlying database handle. Callers that want eviction
// to run should call Dump first; Close itself performs no maintenance.
func (c *Cache) Close() error {
	return c.db.Close()
}

func inodeKey(inode uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, inode)
	return key
}

// Get looks up the cached hash for a file by identity. It returns
// (Entry{}, false, nil) on a clean miss.
func (c *Cache) Get(inode, size uint64, modTime time.Time) (Entry, bool, error) {
	var entry Entry
	var found bool

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		data := b.Get(inodeKey(inode))
		if data == nil {
			return nil
		}
		decoded, err := decodeEntry(data)
		if err != nil {
			return nil
		}
		if decoded.Size != size || !decoded.ModTime.Equal(modTime) {
			return nil
		}
		entry = decoded
		entry.Inode = inode
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("state cache lookup failed: %w", err)
	}
	if !found {
		return Entry{}, false, nil
	}

	// Touch last-access time so eviction preserves recently used entries.
	entry.LastAccessed = time.Now()
	_ = c.save(entry)

	return entry, true, nil
}

// Save records the hash computed for a file by identity.
func (c *Cache) Save(inode, size uint64, modTime time.Time, hash hashinfo.HashInfo) error {
	return c.save(Entry{
		Inode:        inode,
		ModTime:      modTime,
		Size:         size,
		Hash:         hash,
		LastAccessed: time.Now(),
	})
}

func (c *Cache) save(entry Entry) error {
	data := encodeEntry(entry)
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		return b.Put(inodeKey(entry.Inode), data)
	})
}

// SaveLink records that path was last linked out of the store when the
// destination carried the given (inode, mtime) pair.
func (c *Cache) SaveLink(path string, inode uint64, modTime time.Time) error {
	data := encodeLink(LinkEntry{Path: path, Inode: inode, ModTime: modTime})
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLinkState))
		return b.Put([]byte(path), data)
	})
}

// GetLink retrieves the recorded link identity for path.
func (c *Cache) GetLink(path string) (LinkEntry, bool, error) {
	var entry LinkEntry
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLinkState))
		data := b.Get([]byte(path))
		if data == nil {
			return nil
		}
		decoded, err := decodeLink(data)
		if err != nil {
			return nil
		}
		entry = decoded
		found = true
		return nil
	})
	if err != nil {
		return LinkEntry{}, false, fmt.Errorf("link cache lookup failed: %w", err)
	}
	return entry, found, nil
}

// RemoveUnusedLinks removes every link registry row whose path is absent
// from liveSet (the paths currently known to be live, e.g. present after a
// checkout), and every remaining row whose path no longer carries the
// recorded (inode, mtime) pair (because it was overwritten, removed, or
// relinked outside of our knowledge). Passing a nil liveSet removes only
// rows whose identity no longer matches disk. Only registry rows are
// removed; workspace files are left in place.
func (c *Cache) RemoveUnusedLinks(liveSet map[string]bool, statFunc func(path string) (inode uint64, modTime time.Time, ok bool)) error {
	type removalCandidate struct {
		path string
	}
	var toRemove []removalCandidate

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLinkState))
		return b.ForEach(func(k, v []byte) error {
			path := string(k)
			if liveSet != nil && !liveSet[path] {
				toRemove = append(toRemove, removalCandidate{path})
				return nil
			}
			entry, err := decodeLink(v)
			if err != nil {
				toRemove = append(toRemove, removalCandidate{path})
				return nil
			}
			inode, modTime, ok := statFunc(path)
			if !ok || inode != entry.Inode || !modTime.Equal(entry.ModTime) {
				toRemove = append(toRemove, removalCandidate{path})
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("unable to scan link registry: %w", err)
	}

	if len(toRemove) == 0 {
		return nil
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLinkState))
		for _, r := range toRemove {
			if err := b.Delete([]byte(r.path)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Dump finalizes the cache for this run, evicting the oldest-accessed
// entries if the state table has grown beyond rowLimit. Eviction frees down
// to rowLimit * (1 - rowCleanupQuota/100) entries, matching DVC's
// STATE_ROW_LIMIT / STATE_ROW_CLEANUP_QUOTA behavior, so that a single run
// doesn't immediately re-trigger eviction on its next insert.
func (c *Cache) Dump() error {
	type row struct {
		key          []byte
		lastAccessed time.Time
	}

	var rows []row
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		return b.ForEach(func(k, v []byte) error {
			entry, err := decodeEntry(v)
			if err != nil {
				return nil
			}
			rows = append(rows, row{key: append([]byte(nil), k...), lastAccessed: entry.LastAccessed})
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("unable to enumerate state table: %w", err)
	}

	if len(rows) <= c.rowLimit {
		return nil
	}

	target := c.rowLimit * (100 - c.rowCleanupQuota) / 100
	if target < 0 {
		target = 0
	}
	toEvict := len(rows) - target
	if toEvict <= 0 {
		return nil
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].lastAccessed.Before(rows[j].lastAccessed)
	})

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		for i := 0; i < toEvict; i++ {
			if err := b.Delete(rows[i].key); err != nil {
				return err
			}
		}
		return nil
	})
}

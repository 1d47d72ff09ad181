package dataprocessing

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// DefaultCacheEntries is used when NewTableCache gets a non-positive bound.
const DefaultCacheEntries = 8

// Lookup outcomes reported on the cache metrics.
const (
	lookupUnchanged   = "unchanged"
	lookupSameContent = "same_content"
	lookupNew         = "new"
	lookupChanged     = "changed"
	lookupShared      = "shared"
)

type cacheEntry struct {
	table    *domain.SalesTable
	size     int64
	modTime  time.Time
	hash     string
	loadedAt time.Time
	seq      uint64
}

func (e *cacheEntry) info() domain.SourceInfo {
	return domain.SourceInfo{
		Path:        e.table.Source,
		Size:        e.size,
		ModTime:     e.modTime,
		ContentHash: e.hash,
		LoadedAt:    e.loadedAt,
		Rows:        e.table.Len(),
		Advisories:  e.table.Advisories,
	}
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Reloads int64 `json:"reloads"`
}

// TableCache holds canonical tables keyed by absolute source path.
// Tables handed out are shared and must be treated as read-only.
type TableCache struct {
	normalizer *Normalizer
	logger     *slog.Logger
	maxEntries int
	metrics    *pipelineMetrics

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	seq     uint64

	group singleflight.Group

	hits    atomic.Int64
	misses  atomic.Int64
	reloads atomic.Int64
}

// NewTableCache creates a cache that normalizes through n.
func NewTableCache(n *Normalizer, logger *slog.Logger, maxEntries int) *TableCache {
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = NewNormalizer(logger, NormalizerConfig{})
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &TableCache{
		normalizer: n,
		logger:     logger.With(slog.String("component", "table_cache")),
		maxEntries: maxEntries,
		metrics:    newPipelineMetrics(),
		entries:    make(map[string]*cacheEntry),
	}
}

// Get returns the canonical table for path, loading it when the file is new
// or its content changed since the last load.
func (c *TableCache) Get(ctx context.Context, path string) (*domain.SalesTable, domain.SourceInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.SourceInfo{}, errors.NewStorageError("cannot resolve source path", err).WithContext("path", path)
	}

	stat, err := os.Stat(abs)
	if err != nil {
		c.Invalidate(abs)
		return nil, domain.SourceInfo{}, errors.NewStorageError("cannot stat source file", err).WithContext("path", abs)
	}
	if stat.IsDir() {
		c.Invalidate(abs)
		return nil, domain.SourceInfo{}, errors.NewStorageError("source path is a directory", nil).WithContext("path", abs)
	}

	c.mu.RLock()
	entry, ok := c.entries[abs]
	c.mu.RUnlock()
	if ok && entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
		c.hits.Add(1)
		c.metrics.recordLookup(ctx, true, lookupUnchanged)
		return entry.table, entry.info(), nil
	}

	loaded := false
	v, err, _ := c.group.Do(abs, func() (interface{}, error) {
		loaded = true
		return c.load(ctx, abs)
	})
	if err != nil {
		return nil, domain.SourceInfo{}, err
	}
	if !loaded {
		c.hits.Add(1)
		c.metrics.recordLookup(ctx, true, lookupShared)
	}

	entry = v.(*cacheEntry)
	return entry.table, entry.info(), nil
}

// Reload drops any cached table for path and loads it again.
func (c *TableCache) Reload(ctx context.Context, path string) (*domain.SalesTable, domain.SourceInfo, error) {
	if abs, err := filepath.Abs(path); err == nil {
		c.Invalidate(abs)
	}
	return c.Get(ctx, path)
}

// Invalidate removes the entry for path, if any.
func (c *TableCache) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.mu.Lock()
	delete(c.entries, abs)
	c.mu.Unlock()
}

// Stats returns current counters.
func (c *TableCache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Reloads: c.reloads.Load(),
	}
}

func (c *TableCache) load(ctx context.Context, abs string) (*cacheEntry, error) {
	f, err := os.Open(abs)
	if err != nil {
		c.Invalidate(abs)
		return nil, errors.NewStorageError("cannot open source file", err).WithContext("path", abs)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.NewStorageError("cannot stat source file", err).WithContext("path", abs)
	}

	limit := c.normalizer.cfg.MaxFileBytes
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.NewStorageError("cannot read source file", err).WithContext("path", abs)
	}
	if int64(len(data)) > limit {
		return nil, errors.NewStorageError(
			fmt.Sprintf("source file exceeds %d bytes", limit), nil,
		).WithContext("path", abs)
	}

	sum := blake2b.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	c.mu.RLock()
	prev := c.entries[abs]
	c.mu.RUnlock()

	if prev != nil && prev.hash == hash {
		refreshed := *prev
		refreshed.size = stat.Size()
		refreshed.modTime = stat.ModTime()

		c.mu.Lock()
		c.entries[abs] = &refreshed
		c.mu.Unlock()

		c.hits.Add(1)
		c.metrics.recordLookup(ctx, true, lookupSameContent)
		c.logger.DebugContext(ctx, "Source touched but content unchanged", slog.String("path", abs))
		return &refreshed, nil
	}

	table, err := c.normalizer.Normalize(ctx, bytes.NewReader(data))
	if err != nil {
		c.Invalidate(abs)
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", abs)
		}
		return nil, err
	}
	table.Source = abs

	entry := &cacheEntry{
		table:    table,
		size:     stat.Size(),
		modTime:  stat.ModTime(),
		hash:     hash,
		loadedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.seq++
	entry.seq = c.seq
	c.entries[abs] = entry
	evicted := c.evictLocked()
	c.mu.Unlock()

	reason := lookupNew
	if prev != nil {
		reason = lookupChanged
		c.reloads.Add(1)
	}
	c.misses.Add(1)
	c.metrics.recordLookup(ctx, false, reason)

	c.logger.InfoContext(ctx, "Source loaded",
		slog.String("path", abs),
		slog.String("reason", reason),
		slog.Int("rows", table.Len()),
		slog.String("hash", hash[:12]))
	for _, path := range evicted {
		c.logger.DebugContext(ctx, "Evicted cached table", slog.String("path", path))
	}

	return entry, nil
}

// evictLocked drops the oldest-loaded entries above maxEntries. c.mu must be held.
func (c *TableCache) evictLocked() []string {
	var evicted []string
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldestSeq uint64
		for key, e := range c.entries {
			if oldestKey == "" || e.seq < oldestSeq {
				oldestKey = key
				oldestSeq = e.seq
			}
		}
		delete(c.entries, oldestKey)
		evicted = append(evicted, oldestKey)
	}
	return evicted
}

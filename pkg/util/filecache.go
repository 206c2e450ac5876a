package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides read access to source files via memory-mapped regions.
//
// Dependency records slice raw source text by byte offset (code extraction)
// and embed whole files (fileContent); mmap makes both O(1) over the mapped
// region instead of re-reading files per symbol.
//
// Thread-safe: reads share an RWMutex, loads take the write lock with
// double-checked locking. Falls back to os.ReadFile when mmap fails
// (e.g. empty files, exotic filesystems).
type FileCache interface {
	// Get returns the cached file, mapping it on first access.
	Get(filePath string) (*MappedFile, error)

	// FetchCode slices [startByte, endByte) out of the file.
	// Returns an error for out-of-range offsets.
	FetchCode(filePath string, startByte, endByte uint32) (string, error)

	// Content returns the full file content as a string.
	Content(filePath string) (string, error)

	// Invalidate retires a cached entry so the next Get remaps the file
	// (used when a watched file changes). The retired mapping stays valid
	// until Close, so readers holding Bytes slices are never left pointing
	// at unmapped memory.
	Invalidate(filePath string)

	// Size returns the number of currently cached files.
	Size() int

	// Stats returns cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// MappedFile is one cached file. Data is nil when the mmap fallback was used.
type MappedFile struct {
	Path     string
	Data     mmap.MMap
	fallback []byte
}

// Bytes returns the file content regardless of how it was loaded.
func (mf *MappedFile) Bytes() []byte {
	if mf.Data != nil {
		return mf.Data
	}
	return mf.fallback
}

// FileCacheStats holds cache metrics.
type FileCacheStats struct {
	CachedFiles   int
	Hits          int64
	Misses        int64
	MmapFallbacks int64
	TotalBytes    int64
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep mapped. 0 = unlimited.
	MaxFiles int

	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suitable for typical repositories.
func DefaultFileCacheConfig() FileCacheConfig {
	return FileCacheConfig{
		MaxFiles: 10000,
	}
}

type mmapFileCache struct {
	mu      sync.RWMutex
	files   map[string]*MappedFile
	retired []*MappedFile
	config  FileCacheConfig
	logger  *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	fallbacks atomic.Int64
	bytes     atomic.Int64
}

// NewFileCache creates a FileCache with the given configuration.
func NewFileCache(config FileCacheConfig) FileCache {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &mmapFileCache{
		files:  make(map[string]*MappedFile),
		config: config,
		logger: logger,
	}
}

func (c *mmapFileCache) Get(filePath string) (*MappedFile, error) {
	c.mu.RLock()
	mf, ok := c.files[filePath]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return mf, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check: another goroutine may have loaded it.
	if mf, ok := c.files[filePath]; ok {
		c.hits.Add(1)
		return mf, nil
	}
	c.misses.Add(1)

	if c.config.MaxFiles > 0 && len(c.files) >= c.config.MaxFiles {
		return nil, fmt.Errorf("file cache limit reached (%d files)", c.config.MaxFiles)
	}

	mf, err := c.load(filePath)
	if err != nil {
		return nil, err
	}
	c.files[filePath] = mf
	c.bytes.Add(int64(len(mf.Bytes())))
	return mf, nil
}

func (c *mmapFileCache) load(filePath string) (*MappedFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// mmap fails for empty files among other things; fall back to a plain read.
		c.fallbacks.Add(1)
		data, rerr := os.ReadFile(filePath)
		if rerr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, rerr)
		}
		c.logger.Debug("mmap fallback", "file", filePath, "error", err)
		return &MappedFile{Path: filePath, fallback: data}, nil
	}

	return &MappedFile{Path: filePath, Data: m}, nil
}

func (c *mmapFileCache) FetchCode(filePath string, startByte, endByte uint32) (string, error) {
	mf, err := c.Get(filePath)
	if err != nil {
		return "", err
	}

	data := mf.Bytes()
	if endByte <= startByte || int(endByte) > len(data) {
		return "", fmt.Errorf("invalid byte range [%d, %d) for %s (size %d)",
			startByte, endByte, filePath, len(data))
	}

	return string(data[startByte:endByte]), nil
}

func (c *mmapFileCache) Content(filePath string) (string, error) {
	mf, err := c.Get(filePath)
	if err != nil {
		return "", err
	}
	return string(mf.Bytes()), nil
}

func (c *mmapFileCache) Invalidate(filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mf, ok := c.files[filePath]
	if !ok {
		return
	}
	delete(c.files, filePath)
	c.bytes.Add(-int64(len(mf.Bytes())))

	// A watch-mode reanalysis can retire a file while another goroutine is
	// still assembling a document over its bytes. Unmapping here would pull
	// the memory out from under that reader, so the mapping is parked and
	// released in Close instead.
	if mf.Data != nil {
		c.retired = append(c.retired, mf)
	}
}

func (c *mmapFileCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

func (c *mmapFileCache) Stats() FileCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FileCacheStats{
		CachedFiles:   len(c.files),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		MmapFallbacks: c.fallbacks.Load(),
		TotalBytes:    c.bytes.Load(),
	}
}

func (c *mmapFileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, mf := range c.files {
		if mf.Data != nil {
			if err := mf.Data.Unmap(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to unmap %s: %w", path, err)
			}
		}
	}
	for _, mf := range c.retired {
		if err := mf.Data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to unmap %s: %w", mf.Path, err)
		}
	}
	c.files = make(map[string]*MappedFile)
	c.retired = nil
	c.bytes.Store(0)
	return firstErr
}

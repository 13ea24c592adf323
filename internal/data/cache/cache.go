package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/util"
)

// CachedExtraction stores the candidate events previously extracted from a
// source file together with the file state they were derived from.
type CachedExtraction struct {
	SourcePath  string        `json:"source_path"`
	Size        int64         `json:"size"`
	ModTime     int64         `json:"mod_time"`
	Fingerprint string        `json:"fingerprint"`
	Events      []model.Event `json:"events"`
}

// ExtractionCache avoids re-reading metadata from unchanged source files
// across ingestion passes. Entries live as JSON files under baseDir and are
// mirrored in memory once touched.
type ExtractionCache struct {
	baseDir string
	mu      sync.RWMutex
	memory  map[string]*CachedExtraction
}

// NewExtractionCache creates the cache directory if needed.
func NewExtractionCache(baseDir string) (*ExtractionCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &ExtractionCache{
		baseDir: baseDir,
		memory:  make(map[string]*CachedExtraction),
	}, nil
}

func (c *ExtractionCache) cachePath(sourcePath string) string {
	sum := crc32.ChecksumIEEE([]byte(sourcePath))
	return filepath.Join(c.baseDir, fmt.Sprintf("%08x.json", sum))
}

// Get returns the cached candidate events for sourcePath when the file is
// unchanged since they were extracted.
func (c *ExtractionCache) Get(sourcePath string) ([]model.Event, bool) {
	c.mu.RLock()
	entry, ok := c.memory[sourcePath]
	c.mu.RUnlock()

	if !ok {
		entry = c.loadFromFile(sourcePath)
		if entry == nil {
			return nil, false
		}
	}

	if !c.validate(entry) {
		c.mu.Lock()
		delete(c.memory, sourcePath)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.memory[sourcePath] = entry
	c.mu.Unlock()
	return entry.Events, true
}

func (c *ExtractionCache) loadFromFile(sourcePath string) *CachedExtraction {
	data, err := os.ReadFile(c.cachePath(sourcePath))
	if err != nil {
		return nil
	}
	var entry CachedExtraction
	if err := sonic.Unmarshal(data, &entry); err != nil {
		util.LogDebugf("Discarding unreadable cache entry for %s: %v", sourcePath, err)
		return nil
	}
	if entry.SourcePath != sourcePath {
		return nil
	}
	return &entry
}

func (c *ExtractionCache) validate(entry *CachedExtraction) bool {
	stat, err := os.Stat(entry.SourcePath)
	if err != nil {
		return false
	}
	if stat.Size() != entry.Size || stat.ModTime().Unix() != entry.ModTime {
		return false
	}
	fingerprint, err := util.CalculateFileFingerprint(entry.SourcePath)
	if err != nil {
		return false
	}
	return fingerprint == entry.Fingerprint
}

// Set records the extraction result for sourcePath.
func (c *ExtractionCache) Set(sourcePath string, events []model.Event) error {
	stat, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", sourcePath, err)
	}
	fingerprint, err := util.CalculateFileFingerprint(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to fingerprint %s: %w", sourcePath, err)
	}

	entry := &CachedExtraction{
		SourcePath:  sourcePath,
		Size:        stat.Size(),
		ModTime:     stat.ModTime().Unix(),
		Fingerprint: fingerprint,
		Events:      events,
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.WriteFile(c.cachePath(sourcePath), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	c.mu.Lock()
	c.memory[sourcePath] = entry
	c.mu.Unlock()
	return nil
}

// Clear removes every cache entry file.
func (c *ExtractionCache) Clear() error {
	c.mu.Lock()
	c.memory = make(map[string]*CachedExtraction)
	c.mu.Unlock()

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

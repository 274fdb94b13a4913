package knowledge

import (
	"fmt"
	"os"
	"sync"
	"time"

	"streetfood-backend/internal/shared/metrics"
	"streetfood-backend/internal/shared/telemetry"
)

// Store loads the knowledge document from disk and caches the parsed result
// until the file's modification time changes.
type Store struct {
	path string

	mu      sync.RWMutex
	doc     *Document
	modTime time.Time
}

// NewStore constructs a Store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing document path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached Document, re-parsing the file on first use or when
// its modification time differs from the last successful load.
func (s *Store) Load() (*Document, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnavailable, s.path)
	}
	modTime := info.ModTime()

	s.mu.RLock()
	doc, fresh := s.doc, s.doc != nil && s.modTime.Equal(modTime)
	s.mu.RUnlock()
	if fresh {
		return doc, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil && s.modTime.Equal(modTime) {
		return s.doc, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		metrics.IncKnowledgeReload(false)
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	parsed, err := Parse(string(raw))
	if err != nil {
		metrics.IncKnowledgeReload(false)
		telemetry.Error("knowledge.load_failed", map[string]any{
			"path":  s.path,
			"error": err.Error(),
		})
		return nil, err
	}

	s.doc = parsed
	s.modTime = modTime
	metrics.IncKnowledgeReload(true)
	telemetry.Info("knowledge.reload", map[string]any{
		"path":       s.path,
		"areas":      len(parsed.Areas),
		"guidelines": len(parsed.Guidelines),
		"tips":       len(parsed.Tips),
	})
	return parsed, nil
}

// Invalidate drops the cached Document so the next Load re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.doc = nil
	s.modTime = time.Time{}
	s.mu.Unlock()
}

// Areas returns the extracted area names.
func (s *Store) Areas() ([]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), doc.Areas...), nil
}

// AreaFoods returns the food items listed under area.
func (s *Store) AreaFoods(area string) ([]FoodItem, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Foods(area), nil
}

// TimeGuidance returns the section for a time period.
func (s *Store) TimeGuidance(period string) (TimeGuidance, bool, error) {
	doc, err := s.Load()
	if err != nil {
		return TimeGuidance{}, false, err
	}
	g, ok := doc.Guidance(period)
	return g, ok, nil
}

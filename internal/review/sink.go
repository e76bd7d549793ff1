// Package review persists failed work items for human triage. The sink is
// the single place automation failures become durable; it never retries or
// auto-resolves.
package review

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/reimburse-stack/reclaim/internal/types"
)

// Sink writes review records under a queue directory, one JSON file per
// work item id.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates a sink over the queue directory.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

func (s *Sink) recordPath(itemID string) string {
	return filepath.Join(s.dir, itemID+".json")
}

// Save writes the review record for a failed item. The queue directory is
// created implicitly. Saving is idempotent per item id; an existing record
// is never overwritten.
func (s *Sink) Save(itemID string, payload map[string]any, failure types.Failure) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create review queue dir: %w", err)
	}

	path := s.recordPath(itemID)
	if _, err := os.Stat(path); err == nil {
		s.logger.Warn("review record already exists, keeping original", "item_id", itemID)
		return nil
	}

	record := types.ReviewRecord{
		ID:      itemID,
		Payload: payload,
		Failure: failure,
		SavedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode review record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write review record: %w", err)
	}

	s.logger.Info("item saved for human review",
		"item_id", itemID, "category", failure.Category, "code", failure.Code)
	return nil
}

// List returns the ids of all queued records, sorted.
func (s *Sink) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads one record back by item id.
func (s *Sink) Load(itemID string) (*types.ReviewRecord, error) {
	data, err := os.ReadFile(s.recordPath(itemID))
	if err != nil {
		return nil, err
	}
	var record types.ReviewRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode review record %s: %w", itemID, err)
	}
	return &record, nil
}

package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/repository"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// load reads the snapshot. Unreadable snapshots start the store empty and
// malformed entries are dropped one by one.
func (s *Store) load(ctx context.Context) []*model.GenerationRecord {
	logger := logging.From(ctx)

	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		logger.Warn("failed to read generation history, starting empty", "error", err)
		return nil
	}

	records, dropped, err := decodeSnapshot(data, s.capacity)
	if err != nil {
		logger.Warn("discarding corrupted generation history", "error", err)
		return nil
	}
	if dropped > 0 {
		logger.Debug("dropped malformed history entries", "count", dropped)
	}
	return records
}

// decodeSnapshot parses a JSON array of records, skipping entries that do
// not decode, and keeps at most capacity unique records
func decodeSnapshot(data []byte, capacity int) ([]*model.GenerationRecord, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, goerr.Wrap(err, "history snapshot is not a JSON array")
	}

	seen := make(map[model.GenerationID]struct{}, len(raws))
	records := make([]*model.GenerationRecord, 0, min(len(raws), capacity))
	dropped := 0
	for _, raw := range raws {
		var rec model.GenerationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			dropped++
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			dropped++
			continue
		}
		if len(records) >= capacity {
			dropped++
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, &rec)
	}
	return records, dropped, nil
}

// persist writes the whole collection. On a quota error it retries once with
// the newest fallback records. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context) {
	logger := logging.From(ctx)

	err := s.write(ctx, s.records)
	if err == nil {
		return
	}

	if !errors.Is(err, repository.ErrQuotaExceeded) {
		logger.Error("failed to save generation history", "error", err)
		return
	}

	reduced := s.records[:min(len(s.records), s.fallback)]
	logger.Warn("generation history exceeds storage quota, saving newest records only",
		"total", len(s.records), "kept", len(reduced))

	if err := s.write(ctx, reduced); err != nil {
		logger.Error("failed to save reduced generation history", "error", err)
	}
}

func (s *Store) write(ctx context.Context, records []*model.GenerationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal generation history")
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return goerr.Wrap(err, "failed to write generation history", goerr.V("key", s.key))
	}
	return nil
}

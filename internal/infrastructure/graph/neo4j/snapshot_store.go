package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

const createSnapshotCypher = `
CREATE (s:Snapshot {
  id: $id,
  query: $query,
  timestamp: $timestamp,
  results: $results,
  agentReport: $agentReport
})`

const getSnapshotCypher = `
MATCH (s:Snapshot {id: $id})
RETURN s.id AS id, s.query AS query, s.timestamp AS timestamp, s.results AS results, s.agentReport AS agentReport
LIMIT 1`

// SnapshotStore persists snapshots as write-once :Snapshot nodes.
type SnapshotStore struct {
	runner queryRunner
}

func NewSnapshotStore(runner queryRunner) *SnapshotStore {
	return &SnapshotStore{runner: runner}
}

func (s *SnapshotStore) Insert(ctx context.Context, snapshot domain.Snapshot) error {
	_, err := s.runner.Write(ctx, createSnapshotCypher, map[string]any{
		"id":          snapshot.ID,
		"query":       snapshot.Query,
		"timestamp":   snapshot.Timestamp.UTC(),
		"results":     snapshot.Results,
		"agentReport": snapshot.AgentReport,
	})
	if err != nil {
		if errors.Is(err, errConstraintViolation) {
			return domain.WrapError(domain.ErrSnapshotConflict, "insert snapshot", err)
		}
		return fmt.Errorf("insert snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	rows, err := s.runner.Read(ctx, getSnapshotCypher, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrSnapshotNotFound, "get snapshot", fmt.Errorf("id=%s", id))
	}

	row := rows[0]
	timestamp, _ := timeValue(row, "timestamp")
	return &domain.Snapshot{
		ID:          stringValue(row, "id"),
		Query:       stringValue(row, "query"),
		Timestamp:   timestamp,
		Results:     stringValue(row, "results"),
		AgentReport: stringValue(row, "agentReport"),
	}, nil
}

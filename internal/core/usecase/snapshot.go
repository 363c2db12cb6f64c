package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
)

const maxSnapshotIDAttempts = 3

var snapshotIDPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

type SnapshotUseCase struct {
	repo     ports.SnapshotRepository
	exporter ports.SnapshotExporter
	now      func() time.Time
	newID    func() string
}

func NewSnapshotUseCase(repo ports.SnapshotRepository, exporter ports.SnapshotExporter) *SnapshotUseCase {
	return &SnapshotUseCase{
		repo:     repo,
		exporter: exporter,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newSnapshotID,
	}
}

func newSnapshotID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (uc *SnapshotUseCase) Create(ctx context.Context, input domain.SnapshotInput) (string, error) {
	if strings.TrimSpace(input.Query) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "create snapshot", fmt.Errorf("query is required"))
	}
	if isJSONNull(input.AgentReport) {
		return "", domain.WrapError(domain.ErrInvalidInput, "create snapshot", fmt.Errorf("agentReport is required"))
	}
	if !json.Valid(input.AgentReport) {
		return "", domain.WrapError(domain.ErrInvalidInput, "create snapshot", fmt.Errorf("agentReport is not valid JSON"))
	}
	results := "null"
	if !isJSONNull(input.Results) {
		if err := validateSnapshotResults(input.Results); err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "create snapshot", err)
		}
		results = string(input.Results)
	}

	snapshot := domain.Snapshot{
		Query:       input.Query,
		Timestamp:   uc.now(),
		Results:     results,
		AgentReport: string(input.AgentReport),
	}

	var lastErr error
	for attempt := 0; attempt < maxSnapshotIDAttempts; attempt++ {
		snapshot.ID = uc.newID()
		err := uc.repo.Insert(ctx, snapshot)
		if err == nil {
			return snapshot.ID, nil
		}
		if !domain.IsKind(err, domain.ErrSnapshotConflict) {
			return "", fmt.Errorf("insert snapshot: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("allocate snapshot id after %d attempts: %w", maxSnapshotIDAttempts, lastErr)
}

func (uc *SnapshotUseCase) Get(ctx context.Context, id string) (*domain.SnapshotView, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !snapshotIDPattern.MatchString(id) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get snapshot", fmt.Errorf("id must be 8 hex characters"))
	}

	snapshot, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	report := json.RawMessage(snapshot.AgentReport)
	if !json.Valid(report) {
		encoded, _ := json.Marshal(snapshot.AgentReport)
		report = encoded
	}

	return &domain.SnapshotView{
		ID:          snapshot.ID,
		Query:       snapshot.Query,
		Timestamp:   snapshot.Timestamp,
		Results:     decodeSnapshotResults(snapshot.Results),
		AgentReport: report,
	}, nil
}

func (uc *SnapshotUseCase) Export(ctx context.Context, id string, w io.Writer) error {
	if uc.exporter == nil {
		return fmt.Errorf("snapshot export is not configured")
	}
	view, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.exporter.Write(view, w); err != nil {
		return fmt.Errorf("export snapshot %s: %w", view.ID, err)
	}
	return nil
}

// validateSnapshotResults accepts only a result set, so every stored
// snapshot reads back exactly as it was written.
func validateSnapshotResults(raw json.RawMessage) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var set domain.ResultSet
	if err := decoder.Decode(&set); err != nil {
		return fmt.Errorf("results must be a result set: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("results must be a single JSON value")
	}
	return nil
}

// decodeSnapshotResults never fails: unreadable text degrades to an error marker.
func decodeSnapshotResults(text string) domain.SnapshotResults {
	if isJSONNull([]byte(text)) {
		return domain.SnapshotResults{}
	}
	var set domain.ResultSet
	if err := json.Unmarshal([]byte(text), &set); err != nil {
		return domain.SnapshotResults{ParseError: domain.SnapshotResultsParseError}
	}
	return domain.SnapshotResults{Set: &set}
}

func isJSONNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmbeddingService = errors.New("embedding service error")
	ErrRetrieval        = errors.New("retrieval error")
	ErrAgentService     = errors.New("agent service error")
	ErrAgentParse       = errors.New("agent parse error")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotConflict = errors.New("snapshot id conflict")
	ErrTimeout          = errors.New("timeout")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindLabel returns a stable machine-readable label for the most specific
// error kind carried by err.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrUnauthorized):
		return "unauthorized"
	case IsKind(err, ErrSnapshotNotFound):
		return "snapshot_not_found"
	case IsKind(err, ErrTimeout):
		return "timeout"
	case IsKind(err, ErrEmbeddingService):
		return "embedding_service_error"
	case IsKind(err, ErrRetrieval):
		return "retrieval_error"
	case IsKind(err, ErrAgentParse):
		return "agent_parse_error"
	case IsKind(err, ErrAgentService):
		return "agent_service_error"
	case IsKind(err, ErrTemporary):
		return "temporary_failure"
	default:
		return "internal_error"
	}
}

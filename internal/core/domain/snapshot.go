package domain

import (
	"encoding/json"
	"time"
)

const SnapshotResultsParseError = "could not parse results"

// SnapshotInput is a client-supplied snapshot. Results and AgentReport are
// opaque JSON values; Results may be null.
type SnapshotInput struct {
	Query       string          `json:"query"`
	Results     json.RawMessage `json:"results"`
	AgentReport json.RawMessage `json:"agentReport"`
}

// Snapshot is the persisted record. Results and AgentReport hold JSON text.
type Snapshot struct {
	ID          string
	Query       string
	Timestamp   time.Time
	Results     string
	AgentReport string
}

// SnapshotResults renders as the decoded ResultSet, as null, or as an
// explicit error marker when the stored text could not be decoded.
type SnapshotResults struct {
	Set        *ResultSet
	ParseError string
}

func (r SnapshotResults) MarshalJSON() ([]byte, error) {
	if r.ParseError != "" {
		return json.Marshal(map[string]string{"error": r.ParseError})
	}
	if r.Set == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Set)
}

type SnapshotView struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	Timestamp   time.Time       `json:"timestamp"`
	Results     SnapshotResults `json:"results"`
	AgentReport json.RawMessage `json:"agentReport"`
}

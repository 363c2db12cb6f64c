package domain

import "encoding/json"

// RelevanceVerdict is the model's judgment for one username. IsRelevant is a
// pointer so an omitted field can be told apart from an explicit false.
type RelevanceVerdict struct {
	Username         string `json:"username"`
	RelevanceContext string `json:"relevanceContext"`
	IsRelevant       *bool  `json:"isRelevant,omitempty"`
}

// ProcessedResult is an input candidate that survived reconciliation.
type ProcessedResult struct {
	Candidate        CandidateRecord
	RelevanceContext string
}

func (p ProcessedResult) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(p.Candidate)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	ctx, err := json.Marshal(p.RelevanceContext)
	if err != nil {
		return nil, err
	}
	fields["relevanceContext"] = ctx
	return json.Marshal(fields)
}

func (p *ProcessedResult) UnmarshalJSON(data []byte) error {
	var candidate CandidateRecord
	if err := json.Unmarshal(data, &candidate); err != nil {
		return err
	}
	var ctx struct {
		RelevanceContext string `json:"relevanceContext"`
	}
	if err := json.Unmarshal(data, &ctx); err != nil {
		return err
	}
	p.Candidate = candidate
	p.RelevanceContext = ctx.RelevanceContext
	return nil
}

type AgentReport struct {
	Summary          string            `json:"summary"`
	KeyTakeaways     []string          `json:"keyTakeaways"`
	ProcessedResults []ProcessedResult `json:"processedResults"`
}

// SearchResponse is the full outcome of one search request.
type SearchResponse struct {
	Query           string       `json:"query"`
	NormalizedQuery string       `json:"normalizedQuery"`
	Results         ResultSet    `json:"results"`
	Report          *AgentReport `json:"report"`
}

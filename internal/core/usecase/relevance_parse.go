package usecase

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

//go:embed relevance_schema.json
var relevanceSchemaJSON string

var (
	relevanceSchemaOnce sync.Once
	relevanceSchema     *jsonschema.Schema
	relevanceSchemaErr  error
)

// embeddedObjectPattern grabs everything from the first '{' to the last '}'.
// It is the fallback when no balanced object can be isolated.
var embeddedObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

var errNoEmbeddedObject = errors.New("no JSON object found in model output")

type agentOutput struct {
	Summary          string                    `json:"summary"`
	KeyTakeaways     []string                  `json:"keyTakeaways"`
	ProcessedResults []domain.RelevanceVerdict `json:"processedResults"`
}

func compiledRelevanceSchema() (*jsonschema.Schema, error) {
	relevanceSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("relevance_schema.json", strings.NewReader(relevanceSchemaJSON)); err != nil {
			relevanceSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("relevance_schema.json")
		if err != nil {
			relevanceSchemaErr = fmt.Errorf("compile relevance schema: %w", err)
			return
		}
		relevanceSchema = schema
	})
	return relevanceSchema, relevanceSchemaErr
}

// parseAgentOutput decodes the model completion. Strict JSON is tried first,
// then the first embedded {...} block, then a repaired copy of that block.
// The decoded document must match the relevance schema.
func parseAgentOutput(raw string) (agentOutput, error) {
	data, doc, err := decodeAgentJSON(raw)
	if err != nil {
		return agentOutput{}, domain.WrapError(domain.ErrAgentParse, "parse agent output", err)
	}

	schema, err := compiledRelevanceSchema()
	if err != nil {
		return agentOutput{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return agentOutput{}, domain.WrapError(domain.ErrAgentParse, "validate agent output", err)
	}

	var out agentOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return agentOutput{}, domain.WrapError(domain.ErrAgentParse, "decode agent output", err)
	}
	return out, nil
}

func decodeAgentJSON(raw string) ([]byte, any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, fmt.Errorf("empty model output")
	}

	var doc any
	strictErr := json.Unmarshal([]byte(raw), &doc)
	if strictErr == nil {
		return []byte(raw), doc, nil
	}

	balanced := firstBalancedObject(raw)
	greedy := embeddedObjectPattern.FindString(raw)
	if balanced == "" && greedy == "" {
		return nil, nil, fmt.Errorf("%w: %v", errNoEmbeddedObject, strictErr)
	}
	for _, candidate := range []string{balanced, greedy} {
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
			return []byte(candidate), doc, nil
		}
	}

	embedded := balanced
	if embedded == "" {
		embedded = greedy
	}
	repaired, err := jsonrepair.JSONRepair(embedded)
	if err != nil {
		return nil, nil, fmt.Errorf("repair embedded object: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal repaired object: %w", err)
	}
	return []byte(repaired), doc, nil
}

// firstBalancedObject returns the first {...} block whose braces balance,
// ignoring braces inside JSON strings. It returns "" when none closes.
func firstBalancedObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
)

const relevanceSystemPrompt = `You evaluate builder profiles and posts from a social graph against a search query.
Respond with a single JSON object and nothing else.`

type RelevanceOptions struct {
	// MissingVerdictIsRelevant keeps a candidate whose verdict omits isRelevant.
	MissingVerdictIsRelevant bool
}

type RelevanceAgent struct {
	llm  ports.ChatCompleter
	opts RelevanceOptions
}

func NewRelevanceAgent(llm ports.ChatCompleter, opts RelevanceOptions) *RelevanceAgent {
	return &RelevanceAgent{llm: llm, opts: opts}
}

func (a *RelevanceAgent) Analyze(ctx context.Context, query domain.Query, set domain.ResultSet) (*domain.AgentReport, error) {
	candidates := set.Candidates()

	prompt, err := buildRelevancePrompt(query.Original, candidates)
	if err != nil {
		return nil, err
	}

	raw, err := a.llm.CompleteJSON(ctx, relevanceSystemPrompt, prompt)
	if err != nil {
		if domain.IsKind(err, domain.ErrAgentService) || domain.IsKind(err, domain.ErrTemporary) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrAgentService, "agent completion", err)
	}

	out, err := parseAgentOutput(raw)
	if err != nil {
		return nil, err
	}

	report := reconcileVerdicts(candidates, out, a.opts)
	slog.Debug("relevance_analyzed",
		"candidates", len(candidates),
		"verdicts", len(out.ProcessedResults),
		"kept", len(report.ProcessedResults),
	)
	return report, nil
}

// reconcileVerdicts merges verdicts back onto the input candidates by exact
// username. Candidates without a usable verdict are dropped and verdicts for
// unknown usernames never reach the report.
func reconcileVerdicts(candidates []domain.CandidateRecord, out agentOutput, opts RelevanceOptions) *domain.AgentReport {
	verdicts := make(map[string]domain.RelevanceVerdict, len(out.ProcessedResults))
	for _, v := range out.ProcessedResults {
		if _, seen := verdicts[v.Username]; seen {
			continue
		}
		verdicts[v.Username] = v
	}

	processed := make([]domain.ProcessedResult, 0, len(candidates))
	for _, candidate := range candidates {
		verdict, ok := verdicts[candidate.Username()]
		if !ok {
			continue
		}
		quote := strings.TrimSpace(verdict.RelevanceContext)
		if quote == "" {
			continue
		}
		if verdict.IsRelevant != nil {
			if !*verdict.IsRelevant {
				continue
			}
		} else if !opts.MissingVerdictIsRelevant {
			continue
		}
		processed = append(processed, domain.ProcessedResult{
			Candidate:        candidate,
			RelevanceContext: quote,
		})
	}

	takeaways := out.KeyTakeaways
	if takeaways == nil {
		takeaways = []string{}
	}
	return &domain.AgentReport{
		Summary:          strings.TrimSpace(out.Summary),
		KeyTakeaways:     takeaways,
		ProcessedResults: processed,
	}
}

func buildRelevancePrompt(query string, candidates []domain.CandidateRecord) (string, error) {
	serialized, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("serialize candidates: %w", err)
	}

	return fmt.Sprintf(`Search query:
%s

Candidates (JSON array; accounts carry a bio, casts carry castText):
%s

For every candidate decide whether it is relevant to the search query.
In relevanceContext quote the bio or cast text that supports the decision.
Then write an executive summary of the relevant builders and a few key takeaways.

Return a JSON object with exactly this shape:
{"summary":"...","keyTakeaways":["..."],"processedResults":[{"username":"...","relevanceContext":"...","isRelevant":true}]}
`, query, string(serialized)), nil
}

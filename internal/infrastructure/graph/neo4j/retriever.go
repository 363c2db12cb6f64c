package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

const (
	accountScoreThreshold = 3.0
	accountLimit          = 5
	castScoreThreshold    = 0.7
	castNeighbors         = 250
)

const accountSearchCypher = `
CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
WHERE score > $minScore
RETURN node.username AS username,
       node.bio AS bio,
       node.followerCount AS followerCount,
       node.credScore AS credScore,
       {state: node.state, city: node.city, country: node.country} AS location,
       node.avatarUrl AS avatarUrl,
       score
ORDER BY score DESC
LIMIT $limit`

const castSearchCypher = `
CALL db.index.vector.queryNodes($index, $k, $embedding) YIELD node, score
WHERE score > $minScore AND node.text IS NOT NULL
OPTIONAL MATCH (author:Account)-[:POSTED]->(node)
RETURN coalesce(author.username, node.username) AS username,
       node.text AS castText,
       node.url AS castUrl,
       node.timestamp AS timestamp,
       node.likesCount AS likesCount,
       node.mentionedChannels AS mentionedChannels,
       node.mentionedUsers AS mentionedUsers,
       score
ORDER BY score DESC`

type RetrieverOptions struct {
	AccountIndex string
	CastIndex    string
	// AllowPartial returns the surviving path when the other one fails.
	AllowPartial bool
}

type Retriever struct {
	runner queryRunner
	opts   RetrieverOptions
}

func NewRetriever(runner queryRunner, opts RetrieverOptions) *Retriever {
	if opts.AccountIndex == "" {
		opts.AccountIndex = "account_profile_fulltext"
	}
	if opts.CastIndex == "" {
		opts.CastIndex = "cast_embedding_index"
	}
	return &Retriever{runner: runner, opts: opts}
}

// Retrieve runs the account full-text path and the cast vector path
// concurrently and returns accounts followed by casts.
func (r *Retriever) Retrieve(ctx context.Context, normalized string, vector []float32) ([]domain.CandidateRecord, error) {
	var accounts, casts []domain.CandidateRecord
	var accountErr, castErr error

	g, gctx := new(errgroup.Group), ctx
	if !r.opts.AllowPartial {
		g, gctx = errgroup.WithContext(ctx)
	}
	g.Go(func() error {
		accounts, accountErr = r.searchAccounts(gctx, normalized)
		return accountErr
	})
	g.Go(func() error {
		casts, castErr = r.searchCasts(gctx, vector)
		return castErr
	})
	err := g.Wait()

	if err != nil && !r.opts.AllowPartial {
		return nil, domain.WrapError(domain.ErrRetrieval, "hybrid retrieval", err)
	}
	if accountErr != nil && castErr != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "hybrid retrieval", fmt.Errorf("accounts: %w; casts: %w", accountErr, castErr))
	}
	if accountErr != nil {
		slog.Warn("retrieval_path_failed", "path", "accounts", "error", accountErr)
	}
	if castErr != nil {
		slog.Warn("retrieval_path_failed", "path", "casts", "error", castErr)
	}

	out := make([]domain.CandidateRecord, 0, len(accounts)+len(casts))
	out = append(out, accounts...)
	out = append(out, casts...)
	return out, nil
}

func (r *Retriever) searchAccounts(ctx context.Context, normalized string) ([]domain.CandidateRecord, error) {
	query := escapeLucene(normalized)
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := r.runner.Read(ctx, accountSearchCypher, map[string]any{
		"index":    r.opts.AccountIndex,
		"query":    query,
		"minScore": accountScoreThreshold,
		"limit":    int64(accountLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("account full-text search: %w", err)
	}
	return shapeAccounts(rows), nil
}

func (r *Retriever) searchCasts(ctx context.Context, vector []float32) ([]domain.CandidateRecord, error) {
	embedding := make([]float64, len(vector))
	for i, v := range vector {
		embedding[i] = float64(v)
	}
	rows, err := r.runner.Read(ctx, castSearchCypher, map[string]any{
		"index":     r.opts.CastIndex,
		"k":         int64(castNeighbors),
		"embedding": embedding,
		"minScore":  castScoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("cast vector search: %w", err)
	}
	return shapeCasts(rows), nil
}

// shapeAccounts re-applies the score threshold, ordering and cap.
func shapeAccounts(rows []map[string]any) []domain.CandidateRecord {
	matches := make([]domain.AccountMatch, 0, len(rows))
	for _, row := range rows {
		score, ok := floatValue(row, "score")
		if !ok || score <= accountScoreThreshold {
			continue
		}
		username := stringValue(row, "username")
		if username == "" {
			continue
		}
		location := mapValue(row, "location")
		matches = append(matches, domain.AccountMatch{
			Username:      username,
			Bio:           stringValue(row, "bio"),
			FollowerCount: int64Value(row, "followerCount"),
			CredScore:     floatOrZero(row, "credScore"),
			Location: domain.Location{
				State:   stringValue(location, "state"),
				City:    stringValue(location, "city"),
				Country: stringValue(location, "country"),
			},
			AvatarURL:  stringValue(row, "avatarUrl"),
			MatchScore: score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })
	if len(matches) > accountLimit {
		matches = matches[:accountLimit]
	}

	out := make([]domain.CandidateRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, domain.NewAccountCandidate(m))
	}
	return out
}

// shapeCasts re-applies the similarity threshold and drops rows without text.
func shapeCasts(rows []map[string]any) []domain.CandidateRecord {
	matches := make([]domain.CastMatch, 0, len(rows))
	for _, row := range rows {
		score, ok := floatValue(row, "score")
		if !ok || score <= castScoreThreshold {
			continue
		}
		text, ok := row["castText"].(string)
		if !ok {
			continue
		}
		matches = append(matches, domain.CastMatch{
			Username:          stringValue(row, "username"),
			CastText:          text,
			CastURL:           stringValue(row, "castUrl"),
			Timestamp:         timestampText(row, "timestamp"),
			LikesCount:        int64Value(row, "likesCount"),
			MentionedChannels: stringSlice(row, "mentionedChannels"),
			MentionedUsers:    stringSlice(row, "mentionedUsers"),
			MatchScore:        score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })

	out := make([]domain.CandidateRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, domain.NewCastCandidate(m))
	}
	return out
}

func floatOrZero(row map[string]any, key string) float64 {
	v, _ := floatValue(row, key)
	return v
}

var luceneEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `!`, `\!`, `(`, `\(`, `)`, `\)`,
	`:`, `\:`, `^`, `\^`, `[`, `\[`, `]`, `\]`, `"`, `\"`, `{`, `\{`,
	`}`, `\}`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `&`, `\&`, `/`, `\/`,
)

// escapeLucene makes user text safe for the full-text query parser.
func escapeLucene(s string) string {
	return luceneEscaper.Replace(s)
}

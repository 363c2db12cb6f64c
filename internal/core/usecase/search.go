package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
)

type SearchOptions struct {
	EmbeddingTimeout time.Duration
	RetrievalTimeout time.Duration
	AgentTimeout     time.Duration
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		EmbeddingTimeout: 10 * time.Second,
		RetrievalTimeout: 10 * time.Second,
		AgentTimeout:     30 * time.Second,
	}
}

type SearchUseCase struct {
	embedder  ports.Embedder
	retriever ports.CandidateRetriever
	analyzer  ports.RelevanceAnalyzer
	opts      SearchOptions
}

func NewSearchUseCase(
	embedder ports.Embedder,
	retriever ports.CandidateRetriever,
	analyzer ports.RelevanceAnalyzer,
	opts SearchOptions,
) *SearchUseCase {
	return &SearchUseCase{
		embedder:  embedder,
		retriever: retriever,
		analyzer:  analyzer,
		opts:      opts,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, rawQuery string) (*domain.SearchResponse, error) {
	query, err := NormalizeQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	vector, err := callWithDeadline(ctx, uc.opts.EmbeddingTimeout, "embed query", domain.ErrEmbeddingService,
		func(callCtx context.Context) ([]float32, error) {
			return uc.embedder.EmbedQuery(callCtx, strings.TrimSpace(query.Original))
		})
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed query", fmt.Errorf("empty embedding vector"))
	}

	records, err := callWithDeadline(ctx, uc.opts.RetrievalTimeout, "retrieve candidates", domain.ErrRetrieval,
		func(callCtx context.Context) ([]domain.CandidateRecord, error) {
			return uc.retriever.Retrieve(callCtx, query.Normalized, vector)
		})
	if err != nil {
		return nil, err
	}

	set := Aggregate(records)
	slog.Debug("candidates_aggregated",
		"normalized_query", query.Normalized,
		"accounts", set.Stats.AccountCount,
		"casts", set.Stats.CastCount,
	)

	report, err := callWithDeadline(ctx, uc.opts.AgentTimeout, "analyze relevance", domain.ErrAgentService,
		func(callCtx context.Context) (*domain.AgentReport, error) {
			return uc.analyzer.Analyze(callCtx, query, set)
		})
	if err != nil {
		return nil, err
	}

	return &domain.SearchResponse{
		Query:           query.Original,
		NormalizedQuery: query.Normalized,
		Results:         set,
		Report:          report,
	}, nil
}

var pipelineKinds = []error{
	domain.ErrInvalidInput,
	domain.ErrEmbeddingService,
	domain.ErrRetrieval,
	domain.ErrAgentService,
	domain.ErrAgentParse,
	domain.ErrTimeout,
	domain.ErrTemporary,
}

// callWithDeadline runs one external call under its own deadline. A deadline
// hit becomes domain.ErrTimeout; any other untyped failure is tagged with
// fallbackKind.
func callWithDeadline[T any](
	ctx context.Context,
	timeout time.Duration,
	operation string,
	fallbackKind error,
	fn func(context.Context) (T, error),
) (T, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := fn(callCtx)
	if err == nil {
		return out, nil
	}

	var zero T
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return zero, domain.WrapError(domain.ErrTimeout, operation, err)
	}
	for _, kind := range pipelineKinds {
		if domain.IsKind(err, kind) {
			return zero, fmt.Errorf("%s: %w", operation, err)
		}
	}
	return zero, domain.WrapError(fallbackKind, operation, err)
}

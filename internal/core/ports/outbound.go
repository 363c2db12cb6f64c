package ports

import (
	"context"
	"io"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

// Embedder turns query text into a dense vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CandidateRetriever runs the full-text and vector paths against the graph store.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, normalized string, vector []float32) ([]domain.CandidateRecord, error)
}

// ChatCompleter sends a system and user prompt to a language model and
// returns the raw JSON-mode completion text.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RelevanceAnalyzer judges candidates against the query.
type RelevanceAnalyzer interface {
	Analyze(ctx context.Context, query domain.Query, set domain.ResultSet) (*domain.AgentReport, error)
}

// SnapshotRepository persists snapshots. Insert reports domain.ErrSnapshotConflict
// when the id is taken and Get reports domain.ErrSnapshotNotFound on a miss.
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot domain.Snapshot) error
	Get(ctx context.Context, id string) (*domain.Snapshot, error)
}

// SnapshotExporter renders a snapshot view into a downloadable document.
type SnapshotExporter interface {
	Write(view *domain.SnapshotView, w io.Writer) error
}

// NotificationTokenStore keeps notification tokens linked to users.
type NotificationTokenStore interface {
	UpsertToken(ctx context.Context, fid int64, details domain.NotificationDetails) error
	DeleteTokens(ctx context.Context, fid int64) error
}

// NotificationQueue relays webhook events from the API to the worker.
type NotificationQueue interface {
	PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error
	SubscribeNotificationEvents(ctx context.Context, handler func(context.Context, domain.NotificationEvent) error) error
}

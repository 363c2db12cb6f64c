package ports

import (
	"context"
	"io"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

// BuilderSearchService is the inbound contract for the hybrid search pipeline.
type BuilderSearchService interface {
	Search(ctx context.Context, rawQuery string) (*domain.SearchResponse, error)
}

// SnapshotService is the inbound contract for shareable snapshots.
type SnapshotService interface {
	Create(ctx context.Context, input domain.SnapshotInput) (string, error)
	Get(ctx context.Context, id string) (*domain.SnapshotView, error)
	Export(ctx context.Context, id string, w io.Writer) error
}

// NotificationWebhook receives raw webhook payloads. It always acknowledges.
type NotificationWebhook interface {
	HandleWebhook(ctx context.Context, payload []byte)
}

// NotificationProcessor applies a relayed event to the token store.
type NotificationProcessor interface {
	Apply(ctx context.Context, event domain.NotificationEvent) error
}

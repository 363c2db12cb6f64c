package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/builder-search/internal/config"
	"github.com/kirillkom/builder-search/internal/core/ports"
	"github.com/kirillkom/builder-search/internal/core/usecase"
	"github.com/kirillkom/builder-search/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/builder-search/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/builder-search/internal/infrastructure/llm/openai"
	"github.com/kirillkom/builder-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/builder-search/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/builder-search/internal/infrastructure/resilience"
	"github.com/kirillkom/builder-search/internal/observability/metrics"
)

type Options struct {
	// Queue connects to NATS. Only the API and the worker relay events.
	Queue bool
	// Search builds the embedding, retrieval and relevance stack.
	Search bool
	// Metrics receives token usage and breaker states. May be nil.
	Metrics *metrics.HTTPServerMetrics
}

type App struct {
	Config config.Config

	Graph *neo4j.Client
	Queue *nats.Queue

	SearchUC   ports.BuilderSearchService
	SnapshotUC ports.SnapshotService
	WebhookUC  ports.NotificationWebhook
	TokenUC    ports.NotificationProcessor

	db      *sql.DB
	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(resilienceConfig(cfg, opts.Metrics))

	graph, err := neo4j.New(ctx, neo4j.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		Executor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init graph client: %w", err)
	}
	app.Graph = graph
	app.closers = append(app.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = graph.Close(closeCtx)
	})
	if err := graph.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure graph schema: %w", err)
	}

	snapshots, err := app.snapshotRepository(ctx, graph)
	if err != nil {
		return nil, err
	}
	app.SnapshotUC = usecase.NewSnapshotUseCase(snapshots, xlsx.NewExporter())
	app.TokenUC = usecase.NewNotificationTokenUseCase(neo4j.NewTokenStore(graph))

	if opts.Search {
		llm := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			EmbedModel: cfg.OpenAIEmbedModel,
			ChatModel:  cfg.OpenAIChatModel,
			Executor:   executor,
			Usage:      opts.Metrics,
		})
		retriever := neo4j.NewRetriever(graph, neo4j.RetrieverOptions{
			AccountIndex: cfg.Neo4jAccountIndex,
			CastIndex:    cfg.Neo4jCastIndex,
			AllowPartial: cfg.RetrievalAllowPartial,
		})
		agent := usecase.NewRelevanceAgent(openai.NewChatCompleter(llm), usecase.RelevanceOptions{
			MissingVerdictIsRelevant: cfg.AgentMissingVerdictIsRelevant,
		})
		app.SearchUC = usecase.NewSearchUseCase(openai.NewEmbedder(llm), retriever, agent, usecase.SearchOptions{
			EmbeddingTimeout: cfg.EmbeddingTimeout,
			RetrievalTimeout: cfg.RetrievalTimeout,
			AgentTimeout:     cfg.AgentTimeout,
		})
	}

	if opts.Queue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closers = append(app.closers, queue.Close)
		app.WebhookUC = usecase.NewNotificationWebhookUseCase(queue)
	}

	ok = true
	return app, nil
}

func (a *App) snapshotRepository(ctx context.Context, graph *neo4j.Client) (ports.SnapshotRepository, error) {
	if a.Config.SnapshotBackend != config.SnapshotBackendPostgres {
		return neo4j.NewSnapshotStore(graph), nil
	}

	db, err := postgres.OpenDB(ctx, a.Config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	repo := postgres.NewSnapshotRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	return repo, nil
}

// Health checks the stores every request depends on.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.Graph != nil {
		if err := a.Graph.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("neo4j: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func resilienceConfig(cfg config.Config, m *metrics.HTTPServerMetrics) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	out.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	out.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	out.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	if m != nil {
		out.OnBreakerStateChange = m.RecordBreakerState
	}
	return out
}

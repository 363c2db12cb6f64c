package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/builder-search/internal/infrastructure/resilience"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

var errConstraintViolation = errors.New("neo4j constraint violation")

type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Executor *resilience.Executor
}

// Client wraps one long-lived driver. Every query opens a short session in
// the configured database and runs inside a managed transaction.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	executor *resilience.Executor
}

// queryRunner is the row-level contract the stores depend on.
type queryRunner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	database := strings.TrimSpace(cfg.Database)
	if database == "" {
		database = "neo4j"
	}
	return &Client{
		driver:   driver,
		database: database,
		executor: cfg.Executor,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return resilience.Do(ctx, c.executor, "neo4j.read", func(callCtx context.Context) ([]map[string]any, error) {
		session := c.driver.NewSession(callCtx, neo4j.SessionConfig{
			DatabaseName: c.database,
			AccessMode:   neo4j.AccessModeRead,
		})
		defer session.Close(callCtx)

		out, err := session.ExecuteRead(callCtx, collectRows(callCtx, cypher, params))
		if err != nil {
			return nil, err
		}
		return out.([]map[string]any), nil
	}, classifyNeo4jError)
}

func (c *Client) Write(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return resilience.Do(ctx, c.executor, "neo4j.write", func(callCtx context.Context) ([]map[string]any, error) {
		session := c.driver.NewSession(callCtx, neo4j.SessionConfig{
			DatabaseName: c.database,
			AccessMode:   neo4j.AccessModeWrite,
		})
		defer session.Close(callCtx)

		out, err := session.ExecuteWrite(callCtx, collectRows(callCtx, cypher, params))
		if err != nil {
			if isConstraintViolation(err) {
				return nil, fmt.Errorf("%w: %w", errConstraintViolation, err)
			}
			return nil, err
		}
		return out.([]map[string]any), nil
	}, classifyNeo4jError)
}

func collectRows(ctx context.Context, cypher string, params map[string]any) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	}
}

// EnsureSchema creates the constraints the stores rely on. It is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT snapshot_id_unique IF NOT EXISTS FOR (s:Snapshot) REQUIRE s.id IS UNIQUE",
		"CREATE CONSTRAINT notification_token_unique IF NOT EXISTS FOR (t:NotificationToken) REQUIRE t.token IS UNIQUE",
		"CREATE INDEX user_fid IF NOT EXISTS FOR (u:User) ON (u.fid)",
	}
	for _, stmt := range statements {
		if _, err := c.Write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure neo4j schema: %w", err)
		}
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode
}

func classifyNeo4jError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if errors.Is(err, errConstraintViolation) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if neo4j.IsRetryable(err) || neo4j.IsConnectivityError(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

package openai

import (
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/builder-search/internal/infrastructure/resilience"
)

// UsageRecorder receives token usage reported by the provider.
type UsageRecorder interface {
	RecordTokenUsage(operation, model string, promptTokens, completionTokens int)
}

type Config struct {
	APIKey      string
	BaseURL     string
	EmbedModel  string
	ChatModel   string
	HTTPTimeout time.Duration
	Executor    *resilience.Executor
	Usage       UsageRecorder
}

// Client is the shared OpenAI-compatible transport for embeddings and chat.
type Client struct {
	api        *openai.Client
	embedModel string
	chatModel  string
	executor   *resilience.Executor
	usage      UsageRecorder
}

func New(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
		executor:   cfg.Executor,
		usage:      cfg.Usage,
	}
}

func (c *Client) recordUsage(operation, model string, usage openai.Usage) {
	if c.usage == nil {
		return
	}
	c.usage.RecordTokenUsage(operation, model, usage.PromptTokens, usage.CompletionTokens)
}

package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/infrastructure/resilience"
)

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.client.embedModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	resp, err := resilience.Do(ctx, e.client.executor, "openai.embeddings",
		func(callCtx context.Context) (openai.EmbeddingResponse, error) {
			return e.client.api.CreateEmbeddings(callCtx, req)
		}, classifyOpenAIError)
	if err != nil {
		return nil, wrapProviderError(domain.ErrEmbeddingService, "embed query", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed query", fmt.Errorf("empty embedding in response"))
	}
	e.client.recordUsage("embeddings", e.client.embedModel, resp.Usage)
	return resp.Data[0].Embedding, nil
}

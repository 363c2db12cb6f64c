package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/infrastructure/resilience"
)

const relevanceTemperature = 0.1

// ChatCompleter requests JSON-object completions.
type ChatCompleter struct {
	client *Client
}

func NewChatCompleter(client *Client) *ChatCompleter {
	return &ChatCompleter{client: client}
}

func (c *ChatCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.client.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: relevanceTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := resilience.Do(ctx, c.client.executor, "openai.chat",
		func(callCtx context.Context) (openai.ChatCompletionResponse, error) {
			return c.client.api.CreateChatCompletion(callCtx, req)
		}, classifyOpenAIError)
	if err != nil {
		return "", wrapProviderError(domain.ErrAgentService, "chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrAgentService, "chat completion", fmt.Errorf("no choices in response"))
	}
	c.client.recordUsage("chat", c.client.chatModel, resp.Usage)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

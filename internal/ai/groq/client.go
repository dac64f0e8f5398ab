package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/talentops/applicant-pipeline/internal/ai"
)

const (
	// Groq exposes an OpenAI-compatible chat-completions endpoint.
	baseURL = "https://api.groq.com/openai/v1/"

	defaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Client completes prompts through the Groq API.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a Client for the given API key and model.
func New(apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("groq api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)

	return &Client{client: client, model: model}, nil
}

func (c *Client) Complete(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("groq client is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.F(openai.ChatModel(c.model)),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.F(req.Temperature)
	}
	if req.JSONOnly {
		params.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("groq api returned no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("groq api returned empty response")
	}

	return &ai.Response{
		Content:     content,
		TotalTokens: completion.Usage.TotalTokens,
	}, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

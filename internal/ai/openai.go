package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
)

type openAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

func newOpenAIClient(cfg *config.Config) *openAIClient {
	return &openAIClient{
		client:         openai.NewClient(cfg.OpenAIAPIKey),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingsModel,
	}
}

func (c *openAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

func (c *openAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) EmbeddingModel() string { return c.embeddingModel }
func (c *openAIClient) ChatModel() string      { return c.chatModel }

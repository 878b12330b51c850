package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
)

type googleClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func newGoogleClient(cfg *config.Config) (*googleClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &googleClient{
		client:         client,
		chatModel:      cfg.GoogleChatModel,
		embeddingModel: cfg.GoogleEmbeddingsModel,
	}, nil
}

func (c *googleClient) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.client.EmbeddingModel(c.embeddingModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (c *googleClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no completion returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (c *googleClient) EmbeddingModel() string { return c.embeddingModel }
func (c *googleClient) ChatModel() string      { return c.chatModel }

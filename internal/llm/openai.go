package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Rate limiter defaults: 50 requests per minute per handle.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// OpenAIConfig configures an OpenAI-compatible model endpoint. Any server
// speaking the OpenAI API works (OpenAI, vLLM, Ollama, TEI gateways).
type OpenAIConfig struct {
	// Model is the model name sent to the endpoint.
	Model string
	// APIKey authenticates against the endpoint.
	APIKey string
	// BaseURL overrides the endpoint URL. Empty uses the OpenAI default.
	BaseURL string
	// MaxTokens caps completion length for chat generation.
	MaxTokens int
	// Temperature for chat generation. Keyword extraction wants it low.
	Temperature float64
}

func (c OpenAIConfig) options() []openai.Option {
	opts := []openai.Option{openai.WithModel(c.Model)}
	if c.APIKey != "" {
		opts = append(opts, openai.WithToken(c.APIKey))
	}
	if c.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.BaseURL))
	}
	return opts
}

// OpenAIChat is a ChatModel backed by an OpenAI-compatible completion API.
type OpenAIChat struct {
	llm         *openai.LLM
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
}

// NewOpenAIChat creates a chat handle for the configured endpoint.
func NewOpenAIChat(cfg OpenAIConfig) (*OpenAIChat, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("chat model name required")
	}
	llm, err := openai.New(cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("creating openai chat client: %w", err)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &OpenAIChat{
		llm:         llm,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// Generate implements ChatModel.
func (c *OpenAIChat) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out, nil
}

// OpenAIEmbedder is an Embedder backed by an OpenAI-compatible embeddings API.
type OpenAIEmbedder struct {
	llm     *openai.LLM
	limiter *rate.Limiter
}

// NewOpenAIEmbedder creates an embedding handle for the configured endpoint.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model name required")
	}
	opts := append(cfg.options(), openai.WithEmbeddingModel(cfg.Model))
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai embedding client: %w", err)
	}
	return &OpenAIEmbedder{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// EmbedQuery implements Embedder.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	vecs, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding query: empty response")
	}
	return vecs[0], nil
}

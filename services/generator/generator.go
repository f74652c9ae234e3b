package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/services"
	"github.com/astrodocs/missionqa/services/providers"
)

// systemPrompt constrains the model to the supplied evidence: cite attribution
// labels, no outside knowledge, explicit fallback when the context is
// insufficient.
const systemPrompt = "You are a NASA mission expert specializing in space missions, " +
	"spacecraft, astronomy, and planetary science.\n\n" +
	"Rules:\n" +
	"- Use ONLY the provided context to answer the question.\n" +
	"- Cite sources using the format [DOC_ID] after each factual claim.\n" +
	"- If the answer is not in the context, say 'I don't know based on the provided documents.'\n" +
	"- Do NOT use outside knowledge.\n" +
	"- Keep answers clear, concise, and educational."

const (
	// Low temperature and a bounded output length prioritize grounding
	// fidelity over stylistic variety.
	defaultTemperature = 0.3
	defaultMaxTokens   = 600
)

// Config holds generation parameters
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator builds a grounded chat request and invokes the LLM provider.
// It never updates conversation memory; recording the exchange after a
// successful generation is the caller's responsibility.
type Generator struct {
	provider providers.Provider
	config   Config
	logger   *zap.Logger
}

// NewGenerator creates a new grounded generator
func NewGenerator(provider providers.Provider, config Config, logger *zap.Logger) *Generator {
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}

	return &Generator{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Generate answers the question using only the assembled context, with the
// bounded history as prior turns. A provider failure propagates to the caller
// as a generation error for this single question.
func (g *Generator) Generate(ctx context.Context, question, grounding string, history []models.Turn) (string, error) {
	messages := make([]providers.Message, 0, len(history)+3)
	messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})

	// Keep instructions and evidence separable: the context travels as its
	// own system message.
	if grounding != "" {
		messages = append(messages, providers.Message{
			Role:    "system",
			Content: "Context to use for answering the question:\n" + grounding,
		})
	}

	for _, turn := range history {
		messages = append(messages, providers.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	messages = append(messages, providers.Message{Role: "user", Content: question})

	resp, err := g.provider.ChatCompletion(ctx, &providers.ChatRequest{
		Model:       g.config.Model,
		Messages:    messages,
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		return "", services.NewGenerationError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", services.NewGenerationError("provider returned no choices", nil)
	}

	g.logger.Debug("generation complete",
		zap.String("model", g.config.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

// Package llm provides LLM and embedding services using langchaingo.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/metrics"
)

// Model wraps langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	collector *metrics.Collector
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config, collector *metrics.Collector) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderMistral:
		if cfg.MistralAPIKey == "" {
			return nil, fmt.Errorf("Mistral API key required")
		}
		model, err = mistral.New(
			mistral.WithAPIKey(cfg.MistralAPIKey),
			mistral.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create mistral model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		collector: collector,
	}, nil
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	m.record(time.Since(start))

	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	return response, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	m.record(time.Since(start))

	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// GenerateJSON asks the model for a JSON object and parses the reply.
// Markdown code fences are stripped before parsing. A reply that still
// fails to parse is returned as a marker map carrying the raw text, so
// callers can fall back instead of aborting.
func (m *Model) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error) {
	jsonSystem := systemPrompt + "\n\nRespond only with valid JSON, no markdown or explanation."

	response, err := m.GenerateWithSystem(ctx, jsonSystem, userPrompt)
	if err != nil {
		return nil, err
	}

	parsed, ok := parseJSONReply(response)
	if !ok {
		return map[string]any{"raw_response": response, "error": "Failed to parse JSON"}, nil
	}
	return parsed, nil
}

// GenerateJSONList asks the model for a JSON array of objects. A reply
// that fails to parse yields an empty list and no error, so extraction
// fallbacks degrade to zero records instead of failing a pipeline stage.
func (m *Model) GenerateJSONList(ctx context.Context, systemPrompt, userPrompt string) ([]map[string]any, error) {
	jsonSystem := systemPrompt + "\n\nRespond only with a valid JSON array, no markdown or explanation."

	response, err := m.GenerateWithSystem(ctx, jsonSystem, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed []map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		return nil, nil
	}
	return parsed, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

func (m *Model) record(d time.Duration) {
	if m.collector != nil {
		m.collector.RecordTiming(metrics.OpLLMGenerate, d)
	}
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		if len(lines) >= 2 {
			cleaned = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return cleaned
}

// parseJSONReply strips a surrounding markdown code fence and unmarshals
// the remainder into a generic map.
func parseJSONReply(response string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

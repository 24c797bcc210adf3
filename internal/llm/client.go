package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nshaw/breakdown/embed/prompts"
	"github.com/nshaw/breakdown/internal/observability"
	"github.com/nshaw/breakdown/pkg/config"
	"github.com/nshaw/breakdown/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

// geminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint, used when no
// explicit base_url is configured for the gemini provider.
const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Generator produces a plan draft from a free-text goal.
type Generator interface {
	GenerateBreakdown(ctx context.Context, goal string) (*models.PlanDraft, error)
}

// Client calls a configured LLM provider and falls back to canned plans
// when the provider fails or returns something unparseable.
type Client struct {
	model       llms.Model
	provider    string
	temperature float64
	maxTokens   int
	fallback    Generator
	log         *observability.Logger
}

// New builds a Generator from config. When no provider is usable it returns
// the mock generator directly.
func New(cfg *config.Config, logger *observability.Logger) Generator {
	name, pc := cfg.ActiveProvider()
	if name == "" {
		log.Printf("no LLM provider configured, using canned plans")
		return NewMock()
	}

	model, err := newModel(name, pc)
	if err != nil {
		log.Printf("failed to initialize %s provider, using canned plans: %v", name, err)
		return NewMock()
	}

	return &Client{
		model:       model,
		provider:    name,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
		fallback:    NewMock(),
		log:         logger,
	}
}

func newModel(name string, pc config.ProviderConfig) (llms.Model, error) {
	switch name {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pc.APIKey),
			openai.WithModel(pc.Model),
		}
		if pc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pc.BaseURL))
		}
		return openai.New(opts...)
	case "gemini":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = geminiOpenAIBaseURL
		}
		return openai.New(
			openai.WithToken(pc.APIKey),
			openai.WithModel(pc.Model),
			openai.WithBaseURL(baseURL),
		)
	case "anthropic":
		return anthropic.New(
			anthropic.WithToken(pc.APIKey),
			anthropic.WithModel(pc.Model),
		)
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

func (c *Client) GenerateBreakdown(ctx context.Context, goal string) (*models.PlanDraft, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompts.System),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(prompts.Breakdown, goal)),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		c.log.LogLLM(c.provider, goal, false, time.Since(start))
		log.Printf("%s call failed, falling back to canned plan: %v", c.provider, err)
		return c.fallback.GenerateBreakdown(ctx, goal)
	}

	if len(resp.Choices) == 0 {
		c.log.LogLLM(c.provider, goal, false, time.Since(start))
		return c.fallback.GenerateBreakdown(ctx, goal)
	}

	draft, err := ParseDraft(resp.Choices[0].Content)
	if err != nil {
		c.log.LogLLM(c.provider, goal, false, time.Since(start))
		log.Printf("%s returned unparseable plan, falling back to canned plan: %v", c.provider, err)
		return c.fallback.GenerateBreakdown(ctx, goal)
	}

	c.log.LogLLM(c.provider, goal, true, time.Since(start))
	return draft, nil
}

// ParseDraft decodes a plan draft from raw model output, tolerating
// markdown code fences around the JSON object.
func ParseDraft(content string) (*models.PlanDraft, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	var draft models.PlanDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse plan draft: %w", err)
	}
	if len(draft.Tasks) == 0 {
		return nil, fmt.Errorf("plan draft contains no tasks")
	}
	return &draft, nil
}

package llm

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/sashabaranov/go-openai"

	"FeedDigest/internal/config"
	"FeedDigest/internal/domain"
	"FeedDigest/internal/ports"
	"FeedDigest/internal/retry"
	"FeedDigest/internal/sanitize"
)

//go:embed prompts/summarizer.tmpl
var promptFS embed.FS

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer implements ports.Summarizer backed by OpenAI-compatible chat completion APIs.
type Summarizer struct {
	client      chatCompleter
	model       string
	temperature float32
	maxTokens   int
	prompt      *template.Template
	policy      retry.Policy
	logger      *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// Option customises a Summarizer.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	policy     retry.Policy
}

// WithHTTPClient replaces the default 60s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithRetryPolicy overrides the completion retry budget.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *settings) { s.policy = p }
}

// NewSummarizer builds a summarizer from configuration. Missing credentials,
// a missing model name or an unreadable prompt file are configuration errors.
func NewSummarizer(cfg config.LLMConfig, logger *slog.Logger, opts ...Option) (*Summarizer, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("llm client misconfigured: api key and model are required")
	}

	s := settings{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		policy:     retry.CompletionPolicy(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	prompt, err := LoadPrompt(cfg.PromptFile)
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = s.httpClient

	logger.Info("summarizer initialised", "model", cfg.Model)

	return &Summarizer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		prompt:      prompt,
		policy:      s.policy,
		logger:      logger,
	}, nil
}

// LoadPrompt parses the prompt template at path, or the built-in one when path is empty.
func LoadPrompt(path string) (*template.Template, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = promptFS.ReadFile("prompts/summarizer.tmpl")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	tmpl, err := template.New("summarizer").Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", path, err)
	}
	return tmpl, nil
}

// Summarize asks the model for a summary of one article. A nil summary without
// error is returned when the model answers with nothing or every attempt failed.
func (s *Summarizer) Summarize(ctx context.Context, article domain.Article) (*domain.Summary, error) {
	log := s.logger.With("url", article.URL)
	log.Info("summarizing article")

	var prompt strings.Builder
	if err := s.prompt.Execute(&prompt, struct {
		SourceName string
		Content    string
	}{article.SourceName, article.Content}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}
	// The request field is omitempty; a zero would leave the provider default in place.
	if req.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := retry.Do(ctx, s.policy, func() (openai.ChatCompletionResponse, error) {
		log.Debug("calling completion api")
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil && ctx.Err() != nil {
			return resp, retry.Permanent(err)
		}
		return resp, err
	}, func(attempt int, err error, wait time.Duration) {
		log.Warn("completion call failed, retrying", "attempt", attempt, "wait", wait, "error", describe(err))
	})
	if err != nil {
		log.Error("completion call failed after retries", "attempts", s.policy.Attempts, "error", describe(err))
		return nil, nil
	}

	if len(resp.Choices) == 0 {
		log.Warn("model returned no choices")
		return nil, nil
	}

	text := sanitize.Summary(resp.Choices[0].Message.Content)
	if text == "" {
		log.Warn("model returned an empty summary")
		return nil, nil
	}

	summary := domain.NewSummary(article, text, s.model)
	log.Info("summary ready", "chars", len(summary.Record.SummaryText))
	return &summary, nil
}

func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("status %d: %v", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err.Error()
}

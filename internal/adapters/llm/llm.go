// Package llm is the boundary to the hosted language model that writes
// theme summaries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

// Providers accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default request settings.
const (
	DefaultSystemPrompt = "You are an expert app review analyst."
	DefaultMaxTokens    = 1000
	DefaultTemperature  = 0.7
	defaultTimeout      = 120 * time.Second
)

// Sentinel kinds for LLM errors.
var (
	ErrEmptyResponse   = errors.New("llm returned an empty response")
	ErrRateLimited     = errors.New("llm rate limit wait aborted")
	ErrAPI             = errors.New("llm api error")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingAPIKey   = errors.New("llm api key is not set")
)

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Client is the LLM collaborator.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Option applies a configuration option to a provider client.
type Option func(*settings)

type settings struct {
	apiKey            string
	model             string
	baseURL           string
	client            *http.Client
	timeout           time.Duration
	requestsPerMinute int
	log               logger.Logger
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.apiKey = key }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL overrides the provider endpoint root.
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the HTTP
// client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRequestsPerMinute caps outgoing calls. Zero disables the limiter.
func WithRequestsPerMinute(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.requestsPerMinute = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds the client for provider, wrapped with rate limiting and metrics.
func New(provider string, opts ...Option) (Client, error) {
	s := settings{
		client:            &http.Client{Timeout: defaultTimeout},
		requestsPerMinute: 60,
		log:               logger.Nop(),
	}
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		s.model, s.baseURL = defaultOpenAIModel, defaultOpenAIURL
	case ProviderAnthropic:
		s.model, s.baseURL = defaultAnthropicModel, defaultAnthropicURL
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.timeout > 0 {
		c := *s.client
		c.Timeout = s.timeout
		s.client = &c
	}

	var inner Client = &openAIClient{settings: s}
	if strings.ToLower(provider) == ProviderAnthropic {
		inner = &anthropicClient{settings: s}
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
	}
	return Instrument(inner, strings.ToLower(provider), s.requestsPerMinute, s.log), nil
}

// Instrument wraps c with a client-side rate limit, latency metrics and
// debug logging. requestsPerMinute <= 0 means unlimited.
func Instrument(c Client, name string, requestsPerMinute int, log logger.Logger) Client {
	l := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{next: c, name: name, limiter: l, log: log}
}

type instrumented struct {
	next    Client
	name    string
	limiter *rate.Limiter
	log     logger.Logger
}

func (c *instrumented) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	if p.System == "" {
		p.System = DefaultSystemPrompt
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}

	start := time.Now()
	out, err := c.next.Complete(ctx, p)
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyResponse
	}
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordLLMCall(c.name, metrics.OutcomeError, latency)
		c.log.Warn(ctx, "llm call failed", logger.String("provider", c.name), logger.Error(err))
		return "", err
	}
	metrics.RecordLLMCall(c.name, metrics.OutcomeOK, latency)
	c.log.Debug(ctx, "llm call complete",
		logger.String("provider", c.name),
		logger.Int("prompt_chars", len(p.User)),
		logger.Int("response_chars", len(out)))
	return strings.TrimSpace(out), nil
}

// Unavailable returns a client whose every call fails with err. Used when no
// provider is configured.
func Unavailable(err error) Client {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) Complete(context.Context, Prompt) (string, error) {
	return "", u.err
}

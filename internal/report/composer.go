package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"pairlens/pkg/model"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultModel is the completion model used when none is configured
const DefaultModel = "mistralai/mistral-7b-instruct:free"

var (
	// ErrAuthentication indicates the credential was rejected by the
	// text-generation provider. Distinct from ErrGenerationFailed so the
	// caller knows to re-enter the key.
	ErrAuthentication = errors.New("authentication failed")

	// ErrGenerationFailed indicates the provider returned an error, timed
	// out or produced an empty completion. The caller may retry manually.
	ErrGenerationFailed = errors.New("report generation failed")
)

// Options configures the Composer
type Options struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultOptions returns the generation settings the original tool shipped with
func DefaultOptions() Options {
	return Options{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.3,
		MaxTokens:   2000,
		Timeout:     120 * time.Second,
	}
}

// Composer turns two completed analyses into a natural-language
// comparison report via a single completion call. No streaming, no
// multi-turn state, no internal retries.
type Composer struct {
	opts Options
}

// NewComposer creates a composer with the given options. Zero values
// fall back to defaults, except Temperature: 0 is a valid (greedy)
// setting and is respected as given.
func NewComposer(opts Options) *Composer {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	return &Composer{opts: opts}
}

// Compose builds the comparison prompt for the two analyses and returns
// the provider's response text verbatim
func (c *Composer) Compose(ctx context.Context, a, b *model.StockAnalysis, apiKey string) (*model.Report, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing API key: %w", ErrAuthentication)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.opts.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: c.opts.Timeout}
	client := openai.NewClientWithConfig(cfg)

	prompt := BuildPrompt(a, b)

	// The client omits a zero temperature from the request body, which
	// would hand control back to the server default; the smallest
	// positive float keeps sampling effectively greedy
	temperature := c.opts.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("%v: %w", apiErr.Message, ErrAuthentication)
			}
			return nil, fmt.Errorf("%v: %w", apiErr.Message, ErrGenerationFailed)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && (reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%v: %w", err, ErrAuthentication)
		}
		return nil, fmt.Errorf("%v: %w", err, ErrGenerationFailed)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("empty completion: %w", ErrGenerationFailed)
	}

	return &model.Report{
		Text:        resp.Choices[0].Message.Content,
		Model:       c.opts.Model,
		GeneratedAt: time.Now(),
	}, nil
}

package convert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/hanconv"
)

// variantInstructions describes each conversion for the model. The
// descriptions spell out source and target convention because the model
// has no other signal for regional vocabulary choices.
var variantInstructions = map[hanconv.Variant]string{
	hanconv.VariantT2S:   "Convert Traditional Chinese characters to Simplified Chinese characters.",
	hanconv.VariantT2JP:  "Convert Traditional Chinese hanzi to modern Japanese shinjitai kanji.",
	hanconv.VariantHK2S:  "Convert Traditional Chinese (Hong Kong convention) to Simplified Chinese.",
	hanconv.VariantTW2S:  "Convert Traditional Chinese (Taiwan convention) to Simplified Chinese, keeping Taiwan vocabulary.",
	hanconv.VariantTW2SP: "Convert Traditional Chinese (Taiwan convention) to Simplified Chinese, replacing Taiwan-specific phrases with Mainland equivalents.",
	hanconv.VariantS2T:   "Convert Simplified Chinese characters to Traditional Chinese characters.",
	hanconv.VariantS2HK:  "Convert Simplified Chinese to Traditional Chinese using Hong Kong character conventions.",
	hanconv.VariantS2TW:  "Convert Simplified Chinese to Traditional Chinese using Taiwan character conventions.",
	hanconv.VariantS2TWP: "Convert Simplified Chinese to Traditional Chinese using Taiwan conventions, replacing Mainland-specific phrases with Taiwan equivalents.",
	hanconv.VariantJP2T:  "Convert modern Japanese shinjitai kanji to Traditional Chinese hanzi.",
	hanconv.VariantT2HK:  "Convert Traditional Chinese to Hong Kong character conventions.",
	hanconv.VariantT2TW:  "Convert Traditional Chinese to Taiwan character conventions.",
	hanconv.VariantHK2T:  "Convert Traditional Chinese from Hong Kong conventions to standard Traditional Chinese.",
	hanconv.VariantTW2T:  "Convert Traditional Chinese from Taiwan conventions to standard Traditional Chinese.",
}

// OpenAI converts text through an OpenAI chat-completion model. It is
// the fallback for material a dictionary cannot handle well, such as
// region-specific phrasing.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	retryCfg    RetryConfig
	limiter     *rateLimiter
	log         *zap.Logger

	variant hanconv.Variant
}

// OpenAIConfig holds configuration for the OpenAI converter.
type OpenAIConfig struct {
	APIKey            string        // OpenAI API key
	Model             string        // Model to use (default: "gpt-4o-mini")
	Temperature       float32       // Temperature for generation (default: 0.1)
	BaseURL           string        // Custom base URL (optional)
	Timeout           time.Duration // Per-call timeout (default: 30s)
	Retry             *RetryConfig  // Retry behavior (default: DefaultRetryConfig)
	RequestsPerMinute int           // Sustained request rate (default: 60; negative disables pacing)
	Logger            *zap.Logger   // Logger (default: nop)
}

// NewOpenAI creates a new OpenAI converter.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retryCfg := DefaultRetryConfig()
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}
	var limiter *rateLimiter
	if cfg.RequestsPerMinute >= 0 {
		limiter = newRateLimiter(cfg.RequestsPerMinute, 0)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		retryCfg:    retryCfg,
		limiter:     limiter,
		log:         log.Named("openai-converter"),
		variant:     hanconv.VariantNone,
	}
}

// SetConversion selects the conversion the prompts will request.
func (o *OpenAI) SetConversion(variant hanconv.Variant) error {
	if variant == hanconv.VariantNone {
		o.variant = variant
		return nil
	}
	if _, ok := variantInstructions[variant]; !ok {
		return &hanconv.ConverterError{Message: "variant " + string(variant) + " cannot be requested"}
	}
	o.variant = variant
	return nil
}

// Convert converts one text run. The document pipeline must never lose
// content, so any API failure returns the input unchanged after the
// retries are exhausted.
func (o *OpenAI) Convert(text string) string {
	if o.variant == hanconv.VariantNone || strings.TrimSpace(text) == "" {
		return text
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	result, err := retry(ctx, o.retryCfg, func() (string, error) {
		// Pacing applies per request: retries count against the quota too.
		if o.limiter != nil {
			if err := o.limiter.wait(ctx); err != nil {
				return "", err
			}
		}
		return o.complete(ctx, text)
	})
	if err != nil {
		o.log.Warn("conversion request failed, keeping original text",
			zap.String("variant", string(o.variant)),
			zap.Error(err))
		return text
	}
	return result
}

func (o *OpenAI) complete(ctx context.Context, text string) (string, error) {
	systemPrompt := fmt.Sprintf(`# Role
You are a precise Chinese script conversion engine.

# Task
%s

# Rules
- Convert ONLY the characters; never translate, rephrase, summarize or reorder.
- Preserve all whitespace, punctuation, digits, Latin text and markup exactly as given.
- Return ONLY the converted text, with no commentary and no Markdown.`, variantInstructions[o.variant])

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", &hanconv.ConverterError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &hanconv.ConverterError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}
	return resp.Choices[0].Message.Content, nil
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

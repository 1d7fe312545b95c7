package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	providerNameOpenAI = "openai"

	// DefaultOpenAIModel is used when no model is configured
	DefaultOpenAIModel = "gpt-4o-mini"

	// Logging limits
	maxPreviewChars = 200
)

// OpenAIProvider implements the Provider interface using OpenAI chat completions
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
// baseURL is optional and allows OpenAI-compatible gateways.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // one call per cycle, failures go straight back to the user
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate performs one non-streaming chat completion
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	params := p.buildRequestParams(request)
	log.Printf("✍️  OPENAI GENERATION REQUEST STARTED (Model: %s, max_tokens: %d, temperature: %.2f)",
		params.Model, request.MaxOutputTokens, request.Temperature)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	span := transaction.StartChild("openai.api_call")
	resp, err := p.client.Chat.Completions.New(ctx, params)
	apiDuration := time.Since(startTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	response, err := p.processResponse(resp)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}

	transaction.SetTag("success", "true")
	return response, nil
}

func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) openai.ChatCompletionNewParams {
	model := request.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if request.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(request.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(request.Prompt))

	return openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(int64(request.MaxOutputTokens)),
		Temperature:         openai.Float(request.Temperature),
	}
}

func (p *OpenAIProvider) processResponse(resp *openai.ChatCompletion) (*GenerationResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	log.Printf("📥 OPENAI RESPONSE: output_length=%d preview=%q", len(text), truncate(text, maxPreviewChars))
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("openai response did not include any output text")
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	log.Printf("📊 OPENAI USAGE: input=%d, output=%d, total=%d", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)

	return &GenerationResponse{
		Text:         text,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage:        usage,
	}, nil
}

package provider

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/minjaelab/prompter/internal/postprocess"
)

const DefaultOpenAIModel = "gpt-4o-mini"

type OpenAIService struct {
	apiKey string
	client openai.Client
}

func NewOpenAIService(apiKey, baseURL string) *OpenAIService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIService{
		apiKey: apiKey,
		client: openai.NewClient(opts...),
	}
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) Complete(ctx context.Context, cfg Config, req CompletionRequest) (*Result, error) {
	result := &Result{ProviderName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		result.Error = "OpenAI API key required"
		return result, fmt.Errorf("OpenAI API key required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserQuery),
		},
		Temperature: openai.Float(cfg.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		result.Error = fmt.Sprintf("completion request failed: %v", err)
		return result, err
	}

	if len(completion.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.Content = postprocess.Clean(completion.Choices[0].Message.Content)
	result.Metadata = map[string]string{
		"model":             string(completion.Model),
		"prompt_tokens":     fmt.Sprintf("%d", completion.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", completion.Usage.CompletionTokens),
	}

	return result, nil
}

func (s *OpenAIService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

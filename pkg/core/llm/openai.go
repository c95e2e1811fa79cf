package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/core/message"
)

// OpenAIClient OpenAI LLM 客户端
type OpenAIClient struct {
	client  *openai.Client
	options *Options
}

// NewOpenAI 创建 OpenAI 客户端
func NewOpenAI(opts ...Option) (*OpenAIClient, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.APIKey == "" {
		return nil, errors.ErrInvalidAPIKey
	}
	if options.Model == "" {
		options.Model = "gpt-4o-mini"
	}
	if options.EmbeddingModel == "" {
		options.EmbeddingModel = "text-embedding-3-small"
	}

	config := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: options.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		options: options,
	}, nil
}

// Name 返回提供商名称
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Model 返回当前模型名称
func (c *OpenAIClient) Model() string {
	return c.options.Model
}

// Close 关闭客户端连接
func (c *OpenAIClient) Close() error {
	return nil
}

// Generate 生成响应
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildChatRequest(req))
	if err != nil {
		return Response{}, mapOpenAIError(ctx, err)
	}
	return parseOpenAIResponse(resp), nil
}

// buildChatRequest 构建 OpenAI 请求
func (c *OpenAIClient) buildChatRequest(req Request) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.options.Model,
		Messages:    convertMessages(req.Messages),
		Temperature: float32(c.options.Temperature),
		MaxTokens:   c.options.MaxTokens,
	}

	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	}

	return chatReq
}

// convertMessages 转换消息格式
func convertMessages(msgs []message.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}

// parseOpenAIResponse 解析响应
//
// content_filter 和非空 refusal 都映射为安全拦截。
func parseOpenAIResponse(resp openai.ChatCompletionResponse) Response {
	result := Response{
		ID: resp.ID,
		TokenUsage: message.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for i, choice := range resp.Choices {
		cand := Candidate{FinishReason: convertOpenAIFinishReason(choice.FinishReason)}
		if choice.Message.Refusal != "" {
			cand.FinishReason = FinishReasonSafety
		} else if choice.Message.Content != "" {
			cand.Parts = []Part{{Text: choice.Message.Content}}
		}
		if i == 0 && cand.FinishReason != FinishReasonSafety {
			result.Content = choice.Message.Content
		}
		result.Candidates = append(result.Candidates, cand)
	}

	return result
}

func convertOpenAIFinishReason(r openai.FinishReason) FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return FinishReasonStop
	case openai.FinishReasonLength:
		return FinishReasonLength
	case openai.FinishReasonContentFilter:
		return FinishReasonSafety
	case "":
		return FinishReasonUnspecified
	default:
		return FinishReasonOther
	}
}

// Embed 生成文本嵌入向量
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.options.EmbeddingModel),
	}

	var resp openai.EmbeddingResponse
	err := retry(ctx, c.options.MaxRetries, c.options.RetryDelay, func() error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, req)
		return mapOpenAIError(ctx, err)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", errors.ErrInvalidResponse, len(texts), len(resp.Data))
	}

	result := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", errors.ErrInvalidResponse, data.Index)
		}
		result[data.Index] = data.Embedding
	}

	return result, nil
}

// mapOpenAIError 映射 OpenAI 错误到框架错误
func mapOpenAIError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
		}
		return errors.ErrContextCanceled
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return mapStatus("openai", apiErr.HTTPStatusCode, apiErr.Code, err)
	}

	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return mapStatus("openai", reqErr.HTTPStatusCode, nil, err)
	}

	return errors.WrapError(err, "openai request failed")
}

// mapStatus 按 HTTP 状态码映射到框架错误
func mapStatus(provider string, status int, code any, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", errors.ErrInvalidAPIKey, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", errors.ErrModelNotFound, err)
	case http.StatusTooManyRequests:
		if code == "insufficient_quota" {
			return fmt.Errorf("%w: %v", errors.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("%w: %v", errors.ErrRateLimited, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %v", errors.ErrProviderUnavailable, err)
	default:
		return fmt.Errorf("%s error (code=%d): %w", provider, status, err)
	}
}

var _ Provider = (*OpenAIClient)(nil)

package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/core/message"
)

// GeminiClient Google Gemini 客户端
type GeminiClient struct {
	client  *genai.Client
	options *Options
}

// NewGemini 创建 Gemini 客户端
func NewGemini(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.APIKey == "" {
		return nil, errors.ErrInvalidAPIKey
	}
	if options.Model == "" {
		options.Model = "gemini-2.5-pro"
	}
	if options.EmbeddingModel == "" {
		options.EmbeddingModel = "text-embedding-004"
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(options.APIKey)}
	if options.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(options.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.WrapError(err, "create gemini client")
	}

	return &GeminiClient{client: client, options: options}, nil
}

// Name 返回提供商名称
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Model 返回当前模型名称
func (c *GeminiClient) Model() string {
	return c.options.Model
}

// Close 关闭客户端连接
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate 生成响应
//
// 拦截（提示词或候选）以 Response 返回，不作为错误。
func (c *GeminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	if c.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
		defer cancel()
	}

	model := c.newModel(req)
	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if stderrors.As(err, &blocked) {
			if resp != nil {
				return convertGeminiResponse(resp), nil
			}
			return blockedResponse(blocked), nil
		}
		return Response{}, mapGeminiError(ctx, err)
	}

	return convertGeminiResponse(resp), nil
}

// newModel 为单次请求构造模型句柄，避免并发请求共享可变设置
func (c *GeminiClient) newModel(req Request) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.options.Model)

	temp := c.options.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	model.SetTemperature(float32(temp))

	maxTokens := c.options.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	if c.options.DisableSafetyFilters {
		model.SafetySettings = blockNoneSafetySettings()
	}

	var system []string
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			system = append(system, msg.Content)
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}

	return model
}

// blockNoneSafetySettings 所有类别均不拦截
func blockNoneSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, &genai.SafetySetting{Category: cat, Threshold: genai.HarmBlockNone})
	}
	return settings
}

// convertGeminiResponse 转换 genai 响应
func convertGeminiResponse(resp *genai.GenerateContentResponse) Response {
	var result Response
	if resp == nil {
		return result
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		result.BlockReason = blockReasonName(resp.PromptFeedback.BlockReason)
	}

	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		result.Candidates = append(result.Candidates, convertGeminiCandidate(c))
	}

	// 快捷文本取首个候选的全部文本片段，被安全拦截时留空
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason != FinishReasonSafety {
		var sb strings.Builder
		for _, part := range result.Candidates[0].Parts {
			sb.WriteString(part.Text)
		}
		result.Content = sb.String()
	}

	if resp.UsageMetadata != nil {
		result.TokenUsage = message.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return result
}

func convertGeminiCandidate(c *genai.Candidate) Candidate {
	cand := Candidate{FinishReason: convertGeminiFinishReason(c.FinishReason)}
	if c.Content == nil {
		return cand
	}
	for _, p := range c.Content.Parts {
		if text, ok := p.(genai.Text); ok {
			cand.Parts = append(cand.Parts, Part{Text: string(text)})
		}
	}
	return cand
}

// blockedResponse 从 BlockedError 构造响应
func blockedResponse(e *genai.BlockedError) Response {
	var result Response
	if e.PromptFeedback != nil {
		result.BlockReason = blockReasonName(e.PromptFeedback.BlockReason)
	}
	if e.Candidate != nil {
		result.Candidates = []Candidate{convertGeminiCandidate(e.Candidate)}
	}
	if result.BlockReason == "" && len(result.Candidates) == 0 {
		result.BlockReason = "BLOCKED"
	}
	return result
}

func blockReasonName(r genai.BlockReason) string {
	switch r {
	case genai.BlockReasonUnspecified:
		return ""
	case genai.BlockReasonSafety:
		return "SAFETY"
	case genai.BlockReasonOther:
		return "OTHER"
	default:
		return fmt.Sprintf("BLOCK_REASON_%d", int32(r))
	}
}

func convertGeminiFinishReason(r genai.FinishReason) FinishReason {
	switch r {
	case genai.FinishReasonUnspecified:
		return FinishReasonUnspecified
	case genai.FinishReasonStop:
		return FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return FinishReasonLength
	case genai.FinishReasonSafety:
		return FinishReasonSafety
	case genai.FinishReasonRecitation:
		return FinishReasonRecitation
	default:
		return FinishReasonOther
	}
}

// Embed 生成文本嵌入向量
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := c.client.EmbeddingModel(c.options.EmbeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	var resp *genai.BatchEmbedContentsResponse
	err := retry(ctx, c.options.MaxRetries, c.options.RetryDelay, func() error {
		var err error
		resp, err = em.BatchEmbedContents(ctx, batch)
		return mapGeminiError(ctx, err)
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch", errors.ErrInvalidResponse)
	}

	result := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: empty embedding at %d", errors.ErrInvalidResponse, i)
		}
		result[i] = e.Values
	}
	return result, nil
}

// mapGeminiError 映射 Gemini 错误到框架错误
func mapGeminiError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
		}
		return errors.ErrContextCanceled
	}

	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) {
		if gerr.Code == 400 && strings.Contains(gerr.Message, "API key not valid") {
			return fmt.Errorf("%w: %v", errors.ErrInvalidAPIKey, err)
		}
		return mapStatus("gemini", gerr.Code, nil, err)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return fmt.Errorf("%w: %v", errors.ErrInvalidAPIKey, err)
		case codes.ResourceExhausted:
			return fmt.Errorf("%w: %v", errors.ErrRateLimited, err)
		case codes.DeadlineExceeded:
			return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
		case codes.NotFound:
			return fmt.Errorf("%w: %v", errors.ErrModelNotFound, err)
		case codes.Unavailable, codes.Internal:
			return fmt.Errorf("%w: %v", errors.ErrProviderUnavailable, err)
		case codes.InvalidArgument:
			if strings.Contains(st.Message(), "API key not valid") {
				return fmt.Errorf("%w: %v", errors.ErrInvalidAPIKey, err)
			}
		}
	}

	return errors.WrapError(err, "gemini request failed")
}

var _ Provider = (*GeminiClient)(nil)

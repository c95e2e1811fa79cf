package rag

import (
	"context"
	"strings"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/core/llm"
	"github.com/easyops/adqa-go/pkg/otel"
)

// OutcomeKind 生成结果类别
type OutcomeKind int

const (
	// OutcomeSuccess 得到可用文本
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRefused 提供商因安全策略拒绝
	OutcomeRefused
	// OutcomeMalformed 响应中没有可用文本
	OutcomeMalformed
	// OutcomeTransportError 调用本身失败
	OutcomeTransportError
)

// String 返回类别名称
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRefused:
		return "refused"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// GenerationOutcome 单次生成调用的结果
type GenerationOutcome struct {
	// Kind 结果类别
	Kind OutcomeKind
	// Text 生成文本，仅 Success 有值
	Text string
	// Reason 拒绝原因，仅 Refused 有值
	Reason string
	// Cause 传输错误，仅 TransportError 有值
	Cause error
	// Response 原始响应，传输错误时为零值
	Response llm.Response
}

// NeedsFallback 是否应降级到兜底回答
func (o GenerationOutcome) NeedsFallback() bool {
	return o.Kind == OutcomeMalformed || o.Kind == OutcomeTransportError
}

// AnswerGenerator 调用 LLM 并对响应分类
type AnswerGenerator struct {
	provider llm.Provider
	logger   otel.Logger
	opts     []llm.RequestOption
}

// GeneratorOption 生成器选项
type GeneratorOption func(*AnswerGenerator)

// WithGeneratorLogger 设置日志
func WithGeneratorLogger(l otel.Logger) GeneratorOption {
	return func(g *AnswerGenerator) {
		g.logger = l
	}
}

// WithRequestOptions 设置每次请求附带的选项
func WithRequestOptions(opts ...llm.RequestOption) GeneratorOption {
	return func(g *AnswerGenerator) {
		g.opts = append(g.opts, opts...)
	}
}

// NewAnswerGenerator 创建生成器
func NewAnswerGenerator(provider llm.Provider, opts ...GeneratorOption) *AnswerGenerator {
	g := &AnswerGenerator{
		provider: provider,
		logger:   otel.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate 调用提供商一次并分类结果，不重试
//
// 分类顺序：提示词拦截或首选候选安全拒绝为 Refused；便捷文本非空为
// Success；否则依次遍历每个候选的内容片段取第一个非空文本；都没有则为
// Malformed。调用失败为 TransportError。
func (g *AnswerGenerator) Generate(ctx context.Context, prompt string) GenerationOutcome {
	logger := g.logger.WithContext(ctx)

	resp, err := g.provider.Generate(ctx, llm.NewRequest(prompt, g.opts...))
	if err != nil {
		logger.Error("generation request failed",
			"provider", g.provider.Name(),
			"model", g.provider.Model(),
			"error", err.Error(),
			"error_type", errors.Classify(err),
			"retryable", errors.IsRetryable(err),
		)
		return GenerationOutcome{Kind: OutcomeTransportError, Cause: err}
	}

	return g.classify(logger, resp)
}

func (g *AnswerGenerator) classify(logger otel.Logger, resp llm.Response) GenerationOutcome {
	if resp.BlockReason != "" {
		logger.Warn("prompt blocked by provider", "block_reason", resp.BlockReason)
		return GenerationOutcome{Kind: OutcomeRefused, Reason: resp.BlockReason, Response: resp}
	}

	switch reason := resp.FinishReason(); reason {
	case llm.FinishReasonSafety:
		logger.Warn("response blocked by safety filters", "finish_reason", string(reason))
		return GenerationOutcome{Kind: OutcomeRefused, Reason: string(reason), Response: resp}
	case llm.FinishReasonLength:
		logger.Warn("response truncated due to max tokens", "finish_reason", string(reason))
	case llm.FinishReasonStop, llm.FinishReasonUnspecified:
	default:
		logger.Warn("unexpected finish reason", "finish_reason", string(reason))
	}

	if text := strings.TrimSpace(resp.Content); text != "" {
		return GenerationOutcome{Kind: OutcomeSuccess, Text: text, Response: resp}
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return GenerationOutcome{Kind: OutcomeSuccess, Text: text, Response: resp}
			}
		}
	}

	logger.Warn("response contained no usable text", "candidates", len(resp.Candidates))
	return GenerationOutcome{Kind: OutcomeMalformed, Response: resp}
}

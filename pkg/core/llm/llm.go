// Package llm 提供 LLM 服务的统一接口
package llm

import (
	"context"

	"github.com/easyops/adqa-go/pkg/core/message"
)

// Provider 定义 LLM 提供商接口
//
// 统一不同 LLM 服务的调用方式，目前支持 Gemini 和 OpenAI（含兼容端点）。
type Provider interface {
	Embedder

	// Generate 生成响应
	//
	// 提供商拒绝回答（安全策略）不视为错误，通过 Response 的
	// BlockReason 或候选的 FinishReason 体现；只有传输层失败返回 error。
	Generate(ctx context.Context, req Request) (Response, error)

	// Name 返回提供商名称
	Name() string

	// Model 返回当前模型名称
	Model() string

	// Close 关闭客户端连接
	Close() error
}

// Embedder 文本嵌入接口
type Embedder interface {
	// Embed 生成文本嵌入向量，返回顺序与输入一致
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Request LLM 请求
type Request struct {
	// Messages 消息列表，system 消息作为系统指令发送
	Messages []message.Message
	// Temperature 温度参数（可选）
	Temperature *float64
	// MaxTokens 最大输出 token（可选）
	MaxTokens *int
}

// FinishReason 候选结束原因
type FinishReason string

const (
	// FinishReasonUnspecified 未指定
	FinishReasonUnspecified FinishReason = ""
	// FinishReasonStop 正常结束
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength 达到最大 token
	FinishReasonLength FinishReason = "length"
	// FinishReasonSafety 被安全策略拦截
	FinishReasonSafety FinishReason = "safety"
	// FinishReasonRecitation 因引用受保护内容被拦截
	FinishReasonRecitation FinishReason = "recitation"
	// FinishReasonOther 其他原因
	FinishReasonOther FinishReason = "other"
)

// Part 候选内容片段
type Part struct {
	// Text 文本内容
	Text string `json:"text"`
}

// Candidate 候选回答
type Candidate struct {
	// FinishReason 结束原因
	FinishReason FinishReason `json:"finish_reason"`
	// Parts 内容片段
	Parts []Part `json:"parts,omitempty"`
}

// Response LLM 响应
type Response struct {
	// ID 响应标识
	ID string `json:"id,omitempty"`
	// Content 便捷文本字段，部分提供商不填充
	Content string `json:"content,omitempty"`
	// Candidates 候选列表，第一个为首选
	Candidates []Candidate `json:"candidates,omitempty"`
	// BlockReason 提示词被拦截的原因，为空表示未拦截
	BlockReason string `json:"block_reason,omitempty"`
	// TokenUsage Token 使用统计
	TokenUsage message.TokenUsage `json:"token_usage"`
}

// FinishReason 返回首选候选的结束原因
func (r Response) FinishReason() FinishReason {
	if len(r.Candidates) == 0 {
		return FinishReasonUnspecified
	}
	return r.Candidates[0].FinishReason
}

// NewRequest 用提示词构建请求
func NewRequest(prompt string, opts ...RequestOption) Request {
	req := Request{Messages: []message.Message{message.NewUserMessage(prompt)}}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

package rag

import (
	"strings"
	"unicode/utf8"
)

// 兜底回答使用的固定文案
const (
	FallbackPrefix     = "Based on the available information:\n\n"
	FallbackDisclaimer = "Please note: The AI service encountered an issue, so this is a basic response from the retrieved information."
	NoContextApology   = "I apologize, but I encountered an error and couldn't retrieve relevant information for your question. Please try again."
	SafetyMessage      = "I apologize, but I cannot provide a response to this query due to safety considerations. Please try rephrasing your question."
)

const (
	// DefaultPreviewLength 兜底回答中每个片段的预览长度（字符）
	DefaultPreviewLength = 200
	// DefaultPreviewParts 兜底回答最多引用的片段数
	DefaultPreviewParts = 3
)

// FallbackResponder 在生成失败时从已组装的上下文构造确定性回答
type FallbackResponder struct {
	previewLength int
	previewParts  int
}

// FallbackOption 兜底选项
type FallbackOption func(*FallbackResponder)

// WithPreviewLength 设置预览长度
func WithPreviewLength(n int) FallbackOption {
	return func(f *FallbackResponder) {
		if n > 0 {
			f.previewLength = n
		}
	}
}

// WithPreviewParts 设置引用片段数
func WithPreviewParts(n int) FallbackOption {
	return func(f *FallbackResponder) {
		if n > 0 {
			f.previewParts = n
		}
	}
}

// NewFallbackResponder 创建兜底回答器
func NewFallbackResponder(opts ...FallbackOption) *FallbackResponder {
	f := &FallbackResponder{
		previewLength: DefaultPreviewLength,
		previewParts:  DefaultPreviewParts,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Respond 构造兜底回答，永不失败且返回值非空
//
// 有片段时输出固定前缀、前几个片段的预览和免责声明；没有片段时返回固定致歉。
// reason 只用于调用方记录，不影响文本。
func (f *FallbackResponder) Respond(parts []string, reason OutcomeKind) string {
	if len(parts) == 0 {
		return NoContextApology
	}

	var sb strings.Builder
	sb.WriteString(FallbackPrefix)
	for i, part := range parts {
		if i >= f.previewParts {
			break
		}
		sb.WriteString(preview(part, f.previewLength))
		sb.WriteString(PartSeparator)
	}
	sb.WriteString(FallbackDisclaimer)
	return sb.String()
}

// preview 超长时截断并追加标记
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncateRunes(s, n) + TruncationMarker
}

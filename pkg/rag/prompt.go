package rag

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/easyops/adqa-go/pkg/core/errors"
)

// DefaultPromptTemplate 默认提示词模板
//
// 可用字段：.Context 组装后的上下文，.Query 去除首尾空白的原始问题。
const DefaultPromptTemplate = `You are a helpful AI assistant specializing in digital marketing and Facebook advertising.

Based on the following context information, provide a clear and helpful answer to the user's question.

CONTEXT:
{{.Context}}

USER QUESTION: {{.Query}}

INSTRUCTIONS:
- Provide a comprehensive but concise answer
- Use information from the context when relevant
- If the context doesn't fully answer the question, acknowledge that
- Keep your response professional and helpful

ANSWER:`

// PromptData 模板数据
type PromptData struct {
	Context string
	Query   string
}

// PromptBuilder 渲染生成提示词
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder 解析模板，空字符串使用默认模板
//
// 模板无法解析时返回 ErrPromptTemplate。
func NewPromptBuilder(text string) (*PromptBuilder, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultPromptTemplate
	}
	tmpl, err := template.New("answer").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPromptTemplate, err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// MustPromptBuilder 同 NewPromptBuilder，失败时 panic
func MustPromptBuilder(text string) *PromptBuilder {
	b, err := NewPromptBuilder(text)
	if err != nil {
		panic(err)
	}
	return b
}

// Build 用上下文和问题渲染提示词
func (b *PromptBuilder) Build(ctx AssembledContext, query string) (string, error) {
	if b == nil || b.tmpl == nil {
		return "", fmt.Errorf("%w: builder not initialized", errors.ErrPromptTemplate)
	}

	var sb strings.Builder
	data := PromptData{Context: ctx.Text(), Query: strings.TrimSpace(query)}
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrPromptTemplate, err)
	}
	return sb.String(), nil
}

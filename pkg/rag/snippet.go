package rag

import (
	"context"
	"strings"
)

// MinSnippetLength 片段的最小长度（字符），更短的片段在来源边界被丢弃
const MinSnippetLength = 11

// SnippetSource 检索片段来源
//
// Search 永不返回错误：来源内部的失败被吸收为空结果，并由实现自行记录日志。
// 返回片段的顺序即来源自身的相关性顺序，调用方不会重排。
type SnippetSource interface {
	// Name 返回来源名称，用于日志与指标
	Name() string
	// Search 返回与查询相关的有序片段
	Search(ctx context.Context, query string) []string
}

// NormalizeSnippets 去除首尾空白并丢弃过短的片段，保持原有顺序
func NormalizeSnippets(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len([]rune(s)) < MinSnippetLength {
			continue
		}
		out = append(out, s)
	}
	return out
}

// StaticSource 返回固定片段的来源
type StaticSource struct {
	name     string
	snippets []string
}

// NewStaticSource 创建固定片段来源
func NewStaticSource(name string, snippets ...string) *StaticSource {
	return &StaticSource{name: name, snippets: snippets}
}

// Name 返回来源名称
func (s *StaticSource) Name() string {
	return s.name
}

// Search 返回固定片段的副本
func (s *StaticSource) Search(ctx context.Context, query string) []string {
	out := make([]string, len(s.snippets))
	copy(out, s.snippets)
	return out
}

// SourceFunc 函数适配为来源
type SourceFunc struct {
	name string
	fn   func(ctx context.Context, query string) []string
}

// NewSourceFunc 用函数创建来源
func NewSourceFunc(name string, fn func(ctx context.Context, query string) []string) *SourceFunc {
	return &SourceFunc{name: name, fn: fn}
}

// Name 返回来源名称
func (s *SourceFunc) Name() string {
	return s.name
}

// Search 调用底层函数
func (s *SourceFunc) Search(ctx context.Context, query string) []string {
	return s.fn(ctx, query)
}

var (
	_ SnippetSource = (*StaticSource)(nil)
	_ SnippetSource = (*SourceFunc)(nil)
)

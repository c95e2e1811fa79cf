package rag

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter 估算文本的 Token 数
//
// 上下文预算按字符计算，Token 数只用于观测。
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter 基于 tiktoken 的计数器
//
// 编码表在首次计数时加载，加载失败时退回字符估算。
type TiktokenCounter struct {
	model string

	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter 创建计数器，model 为空时使用 gpt-4o 的编码
func NewTiktokenCounter(model string) *TiktokenCounter {
	if model == "" {
		model = "gpt-4o"
	}
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		// 非 OpenAI 模型（如 Gemini）没有对应编码
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
	}
	c.encoding = encoding
}

// Count 返回 Token 数
func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding == nil {
		return EstimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimatedCounter 按字符估算
type EstimatedCounter struct{}

// Count 返回估算的 Token 数
func (EstimatedCounter) Count(text string) int {
	return EstimateTokens(text)
}

// EstimateTokens 粗略估算：字符数除以 4 与词数乘 1.3 的平均
func EstimateTokens(text string) int {
	charTokens := len(text) / 4
	words := len(strings.Fields(text))
	if words == 0 {
		return charTokens
	}
	return (charTokens + int(float64(words)*1.3)) / 2
}

var (
	_ TokenCounter = (*TiktokenCounter)(nil)
	_ TokenCounter = EstimatedCounter{}
)

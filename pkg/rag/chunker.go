package rag

import (
	"strings"
)

// DocumentChunker 文档分块器接口
type DocumentChunker interface {
	// Chunk 将文档分割成块
	Chunk(doc Document) []DocumentChunk
}

const (
	// DefaultChunkSize 默认块大小（字符）
	DefaultChunkSize = 800
	// DefaultChunkOverlap 默认块重叠（字符）
	DefaultChunkOverlap = 100
	// DefaultSentenceLookback 在块末尾向前寻找句子边界的范围（字符）
	DefaultSentenceLookback = 200
)

// SentenceChunker 按固定长度分块，尽量在句末切分
//
// 每块最多 MaxChunkSize 个字符；若块末尾 Lookback 范围内有 '.'、'!' 或 '?'，
// 在最后一个句末处结束。相邻块重叠 Overlap 个字符。
type SentenceChunker struct {
	MaxChunkSize int
	Overlap      int
	Lookback     int
}

// NewSentenceChunker 创建句子分块器
func NewSentenceChunker(maxSize, overlap int) *SentenceChunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}
	return &SentenceChunker{
		MaxChunkSize: maxSize,
		Overlap:      overlap,
		Lookback:     DefaultSentenceLookback,
	}
}

// Chunk 按句子边界分割文档
func (c *SentenceChunker) Chunk(doc Document) []DocumentChunk {
	texts := c.Split(doc.Content)

	chunks := make([]DocumentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = DocumentChunk{
			ID:         generateChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Content:    text,
			Index:      i,
			Total:      len(texts),
			Metadata:   doc.Metadata,
		}
	}
	return chunks
}

// Split 分割文本，返回去除首尾空白后的非空块
func (c *SentenceChunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	if n <= c.MaxChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + c.MaxChunkSize
		if end >= n {
			end = n
		} else {
			floor := max(end-c.Lookback, start)
			for i := end; i > floor; i-- {
				if isSentenceEnd(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == n {
			break
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

var _ DocumentChunker = (*SentenceChunker)(nil)

// Package rag 实现广告政策问答的检索融合与有界上下文组装管道
package rag

import (
	"strconv"
	"time"
)

// Document 文档
type Document struct {
	// ID 文档唯一标识
	ID string `json:"id"`
	// Content 文档纯文本内容
	Content string `json:"content"`
	// Metadata 元数据
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata 文档元数据
type DocumentMetadata struct {
	// Source 来源（文件路径、URL 等）
	Source string `json:"source,omitempty"`
	// Title 标题，默认取文件名主干
	Title string `json:"title,omitempty"`
	// Filename 文件名
	Filename string `json:"filename,omitempty"`
	// FileType 扩展名（小写，含点）
	FileType string `json:"file_type,omitempty"`
	// LoadedAt 加载时间
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// DocumentChunk 文档分块
type DocumentChunk struct {
	// ID 分块唯一标识，写入向量库时作为点 ID
	ID string `json:"id"`
	// DocumentID 所属文档 ID
	DocumentID string `json:"document_id"`
	// Content 分块内容
	Content string `json:"content"`
	// Index 分块在文档中的序号，从 0 开始
	Index int `json:"index"`
	// Total 文档的分块总数
	Total int `json:"total"`
	// Metadata 元数据（继承自文档）
	Metadata DocumentMetadata `json:"metadata"`
	// Vector 嵌入向量
	Vector []float32 `json:"vector,omitempty"`
}

// Title 返回分块标题，多块文档追加 "(Part n)"
func (c DocumentChunk) Title() string {
	title := c.Metadata.Title
	if c.Total > 1 {
		return title + " (Part " + strconv.Itoa(c.Index+1) + ")"
	}
	return title
}

// Payload 返回写入向量库的载荷字段
//
// 检索侧只依赖 text 字段。
func (c DocumentChunk) Payload() map[string]any {
	return map[string]any{
		PayloadText:    c.Content,
		"title":        c.Title(),
		"filename":     c.Metadata.Filename,
		"source":       c.Metadata.Source,
		"file_type":    c.Metadata.FileType,
		"chunk_id":     c.Index,
		"total_chunks": c.Total,
	}
}

// PayloadText 载荷中保存分块文本的字段名
const PayloadText = "text"

// RetrievalResult 检索结果
type RetrievalResult struct {
	// Chunk 文档分块
	Chunk DocumentChunk `json:"chunk"`
	// Score 相关性分数
	Score float32 `json:"score"`
}

package rag

import (
	"context"
	"fmt"

	"github.com/easyops/adqa-go/pkg/core/errors"
)

// Retriever 检索器接口
type Retriever interface {
	// Retrieve 检索与查询相关的文档块
	Retrieve(ctx context.Context, query string, topK int) ([]RetrievalResult, error)
}

// VectorRetriever 向量检索器
type VectorRetriever struct {
	store          VectorStore
	embedder       Embedder
	scoreThreshold float32
}

// VectorRetrieverOption 向量检索器选项
type VectorRetrieverOption func(*VectorRetriever)

// WithScoreThreshold 设置分数阈值
func WithScoreThreshold(threshold float32) VectorRetrieverOption {
	return func(r *VectorRetriever) {
		r.scoreThreshold = threshold
	}
}

// NewVectorRetriever 创建向量检索器
func NewVectorRetriever(store VectorStore, embedder Embedder, opts ...VectorRetrieverOption) *VectorRetriever {
	r := &VectorRetriever{
		store:    store,
		embedder: embedder,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve 嵌入查询后做最近邻搜索，保持存储返回的相关性顺序
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrEmbeddingFailed, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", errors.ErrEmbeddingFailed)
	}

	results, err := r.store.Search(ctx, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrVectorStoreFailed, err)
	}

	if r.scoreThreshold > 0 {
		filtered := make([]RetrievalResult, 0, len(results))
		for _, result := range results {
			if result.Score >= r.scoreThreshold {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	return results, nil
}

var _ Retriever = (*VectorRetriever)(nil)

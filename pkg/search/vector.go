package search

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/otel"
	"github.com/easyops/adqa-go/pkg/rag"
)

// VectorSourceName 向量检索来源名
const VectorSourceName = "vector"

// DefaultTopK 默认最近邻数量
const DefaultTopK = 3

// VectorSearch 向量检索来源，返回按相关性排序的文档块文本
type VectorSearch struct {
	retriever rag.Retriever
	topK      int
	opts      *options
}

// NewVectorSearch 创建向量检索来源
func NewVectorSearch(retriever rag.Retriever, topK int, opts ...Option) *VectorSearch {
	if topK <= 0 {
		topK = DefaultTopK
	}
	o := newOptions(opts)
	o.logger = o.logger.With("component", "search.vector")
	return &VectorSearch{retriever: retriever, topK: topK, opts: o}
}

// Name 返回来源名
func (v *VectorSearch) Name() string {
	return VectorSourceName
}

// Search 检索相似文档块
func (v *VectorSearch) Search(ctx context.Context, query string) []string {
	ctx, span := v.opts.tracer.Start(ctx, "search.vector",
		otel.WithAttributes(otel.Source(VectorSourceName), attribute.Int(otel.AttrTopK, v.topK)),
	)
	defer span.End()

	logger := v.opts.logger.WithContext(ctx)

	results, err := v.retriever.Retrieve(ctx, query, v.topK)
	if err != nil {
		span.RecordError(err)
		v.opts.metrics.Counter(otel.MetricSearchErrors).Add(ctx, 1, otel.NewAttr(otel.AttrSource, VectorSourceName))
		logger.Warn("vector search failed", "error", err, "error_type", errors.Classify(err))
		return nil
	}

	texts := make([]string, 0, len(results))
	for i, r := range results {
		logger.Debug("vector hit",
			"rank", i+1,
			"score", r.Score,
			"title", r.Chunk.Metadata.Title,
			"filename", r.Chunk.Metadata.Filename,
		)
		if strings.TrimSpace(r.Chunk.Content) == "" {
			continue
		}
		texts = append(texts, r.Chunk.Content)
	}

	span.SetAttributes(otel.SnippetCount(len(texts)))
	logger.Info("vector search completed", "results", len(texts))
	return texts
}

var _ rag.SnippetSource = (*VectorSearch)(nil)

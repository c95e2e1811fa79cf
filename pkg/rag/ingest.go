package rag

import (
	"context"
	"fmt"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/otel"
)

const (
	// DefaultUpsertBatchSize 每批写入向量库的点数
	DefaultUpsertBatchSize = 100
	// DefaultEmbedBatchSize 每批嵌入的文本数
	DefaultEmbedBatchSize = 32
)

// IngestReport 入库统计
type IngestReport struct {
	Documents     int `json:"documents"`
	Chunks        int `json:"chunks"`
	Embedded      int `json:"embedded"`
	Uploaded      int `json:"uploaded"`
	FailedBatches int `json:"failed_batches"`
}

// Ingestor 加载、分块、嵌入并写入向量库
type Ingestor struct {
	chunker     DocumentChunker
	embedder    Embedder
	store       VectorStore
	upsertBatch int
	embedBatch  int

	logger  otel.Logger
	metrics otel.Metrics
}

// IngestorOption 入库选项
type IngestorOption func(*Ingestor)

// WithChunker 设置分块器
func WithChunker(c DocumentChunker) IngestorOption {
	return func(i *Ingestor) {
		i.chunker = c
	}
}

// WithUpsertBatchSize 设置写入批大小
func WithUpsertBatchSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.upsertBatch = n
		}
	}
}

// WithEmbedBatchSize 设置嵌入批大小
func WithEmbedBatchSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.embedBatch = n
		}
	}
}

// WithIngestLogger 设置日志
func WithIngestLogger(l otel.Logger) IngestorOption {
	return func(i *Ingestor) {
		i.logger = l
	}
}

// WithIngestMetrics 设置指标
func WithIngestMetrics(m otel.Metrics) IngestorOption {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

// NewIngestor 创建入库器
func NewIngestor(embedder Embedder, store VectorStore, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		chunker:     NewSentenceChunker(DefaultChunkSize, DefaultChunkOverlap),
		embedder:    embedder,
		store:       store,
		upsertBatch: DefaultUpsertBatchSize,
		embedBatch:  DefaultEmbedBatchSize,
		logger:      otel.NewNoopLogger(),
		metrics:     otel.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest 从加载器读取文档并入库
func (i *Ingestor) Ingest(ctx context.Context, loader DocumentLoader) (IngestReport, error) {
	docs, err := loader.Load(ctx)
	if err != nil {
		return IngestReport{}, errors.WrapError(err, "load documents")
	}
	return i.IngestDocuments(ctx, docs)
}

// IngestDocuments 分块、嵌入并分批写入
//
// 嵌入或写入失败的批次记录日志后跳过，后续批次继续；只有集合无法创建时返回错误。
func (i *Ingestor) IngestDocuments(ctx context.Context, docs []Document) (IngestReport, error) {
	report := IngestReport{Documents: len(docs)}

	var chunks []DocumentChunk
	for _, doc := range docs {
		docChunks := i.chunker.Chunk(doc)
		i.logger.Debug("document chunked", "source", doc.Metadata.Source, "chunks", len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		i.logger.Info("no document chunks to upload")
		return report, nil
	}

	embedded := i.embed(ctx, chunks, &report)
	report.Embedded = len(embedded)
	if len(embedded) == 0 {
		return report, fmt.Errorf("%w: no chunk could be embedded", errors.ErrEmbeddingFailed)
	}

	if err := i.store.EnsureCollection(ctx, len(embedded[0].Vector)); err != nil {
		return report, fmt.Errorf("%w: %w", errors.ErrVectorStoreFailed, err)
	}

	batches := (len(embedded) + i.upsertBatch - 1) / i.upsertBatch
	for b := 0; b < batches; b++ {
		start := b * i.upsertBatch
		end := min(start+i.upsertBatch, len(embedded))
		if err := i.store.Upsert(ctx, embedded[start:end]); err != nil {
			report.FailedBatches++
			i.logger.Error("failed to upload batch", "batch", b+1, "batches", batches, "error", err.Error())
			continue
		}
		report.Uploaded += end - start
		i.metrics.Counter(otel.MetricIngestChunks).Add(ctx, int64(end-start))
		i.logger.Info("uploaded batch", "batch", b+1, "batches", batches)
	}

	if n, err := i.store.Count(ctx); err == nil {
		i.metrics.Gauge(otel.MetricVectorPoints).Set(ctx, float64(n))
	}

	return report, nil
}

func (i *Ingestor) embed(ctx context.Context, chunks []DocumentChunk, report *IngestReport) []DocumentChunk {
	out := make([]DocumentChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += i.embedBatch {
		end := min(start+i.embedBatch, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}

		vectors, err := i.embedder.Embed(ctx, texts)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("expected %d vectors, got %d", len(batch), len(vectors))
		}
		if err != nil {
			report.FailedBatches++
			i.logger.Error("failed to embed batch", "offset", start, "size", len(batch), "error", err.Error())
			continue
		}

		for j, c := range batch {
			c.Vector = vectors[j]
			out = append(out, c)
		}
	}
	return out
}

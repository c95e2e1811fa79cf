package rag

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// VectorStore 向量存储接口
type VectorStore interface {
	// EnsureCollection 确保集合存在且维度匹配
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert 写入或覆盖带向量的文档块
	Upsert(ctx context.Context, chunks []DocumentChunk) error
	// Search 返回按相关性降序排列的最近邻
	Search(ctx context.Context, vector []float32, topK int) ([]RetrievalResult, error)
	// Count 返回集合中的点数
	Count(ctx context.Context) (int, error)
}

// Embedder 嵌入器接口
type Embedder interface {
	// Embed 生成文本嵌入向量
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// InMemoryVectorStore 内存向量存储，余弦相似度
type InMemoryVectorStore struct {
	chunks    map[string]DocumentChunk
	dimension int
	mu        sync.RWMutex
}

// NewInMemoryVectorStore 创建内存向量存储
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{
		chunks: make(map[string]DocumentChunk),
	}
}

// EnsureCollection 记录向量维度
func (s *InMemoryVectorStore) EnsureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

// Upsert 写入文档块，相同 ID 覆盖
func (s *InMemoryVectorStore) Upsert(ctx context.Context, chunks []DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search 搜索相似文档块
func (s *InMemoryVectorStore) Search(ctx context.Context, query []float32, topK int) ([]RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]RetrievalResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if len(chunk.Vector) == 0 {
			continue
		}
		scored = append(scored, RetrievalResult{Chunk: chunk, Score: cosineSimilarity(query, chunk.Vector)})
	}

	// 分数相同按 ID 排序，保证结果稳定
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Count 返回存储的块数量
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// generateDocumentID 由来源路径生成稳定的文档 ID，重复入库会覆盖旧点
func generateDocumentID(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

// generateChunkID 生成分块 ID，Qdrant 要求点 ID 为 UUID 或无符号整数
func generateChunkID(docID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID+"#"+strconv.Itoa(index))).String()
}

var _ VectorStore = (*InMemoryVectorStore)(nil)

// Package store 提供向量存储后端
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/easyops/adqa-go/pkg/rag"
)

// QdrantVectorStore Qdrant 向量存储
//
// 基于 Qdrant REST API，单个实例只操作一个集合。
type QdrantVectorStore struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// QdrantConfig Qdrant 配置
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrantVectorStore 创建 Qdrant 向量存储
func NewQdrantVectorStore(config QdrantConfig) (*QdrantVectorStore, error) {
	if config.URL == "" {
		config.URL = "http://localhost:6333"
	}
	if config.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &QdrantVectorStore{
		baseURL:    strings.TrimRight(config.URL, "/"),
		apiKey:     config.APIKey,
		collection: config.Collection,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Collection 返回集合名
func (s *QdrantVectorStore) Collection() string {
	return s.collection
}

func (s *QdrantVectorStore) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + suffix
}

// EnsureCollection 集合不存在时按给定维度创建（余弦距离）
//
// 已存在但维度不同返回 ErrDimensionMismatch。
func (s *QdrantVectorStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidInput)
	}

	info, err := s.collectionInfo(ctx)
	if err == nil {
		if info.Dimensions != 0 && info.Dimensions != dimension {
			return fmt.Errorf("%w: collection %s has %d, embeddings have %d",
				ErrDimensionMismatch, s.collection, info.Dimensions, dimension)
		}
		return nil
	}
	if !errors.Is(err, ErrCollectionNotExists) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil)
}

// Upsert 写入文档块，载荷包含 text 字段
func (s *QdrantVectorStore) Upsert(ctx context.Context, chunks []rag.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]qdrantPoint, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("%w: chunk %s has no vector", ErrInvalidInput, c.ID)
		}
		points[i] = qdrantPoint{ID: c.ID, Vector: c.Vector, Payload: c.Payload()}
	}

	return s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

// Search 最近邻搜索，结果按分数降序
func (s *QdrantVectorStore) Search(ctx context.Context, vector []float32, topK int) ([]rag.RetrievalResult, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var result struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), body, &result); err != nil {
		return nil, err
	}

	results := make([]rag.RetrievalResult, 0, len(result.Result))
	for _, r := range result.Result {
		results = append(results, rag.RetrievalResult{
			Chunk: chunkFromPayload(fmt.Sprint(r.ID), r.Payload),
			Score: r.Score,
		})
	}
	return results, nil
}

// Count 返回集合中的点数，集合不存在返回 0
func (s *QdrantVectorStore) Count(ctx context.Context) (int, error) {
	info, err := s.collectionInfo(ctx)
	if errors.Is(err, ErrCollectionNotExists) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Points, nil
}

// CollectionInfo 集合统计
type CollectionInfo struct {
	Points     int
	Dimensions int
}

func (s *QdrantVectorStore) collectionInfo(ctx context.Context) (*CollectionInfo, error) {
	var result struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	if err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &result); err != nil {
		return nil, err
	}

	return &CollectionInfo{
		Points:     result.Result.PointsCount,
		Dimensions: result.Result.Config.Params.Vectors.Size,
	}, nil
}

// HealthCheck 健康检查
func (s *QdrantVectorStore) HealthCheck(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/", nil, nil); err != nil {
		return fmt.Errorf("qdrant not healthy: %w", err)
	}
	return nil
}

// Close 关闭连接
func (s *QdrantVectorStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// do 发送请求并在 out 非空时解码响应
func (s *QdrantVectorStore) do(ctx context.Context, method, path string, body, out any) error {
	req, err := s.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/collections/") {
		return ErrCollectionNotExists
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s failed (status=%d): %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// newRequest 创建 HTTP 请求
func (s *QdrantVectorStore) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	return req, nil
}

// chunkFromPayload 从载荷恢复文档块，缺失字段保持零值
func chunkFromPayload(id string, payload map[string]any) rag.DocumentChunk {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	num := func(key string) int {
		// JSON 数字解码为 float64
		v, _ := payload[key].(float64)
		return int(v)
	}

	return rag.DocumentChunk{
		ID:      id,
		Content: str(rag.PayloadText),
		Index:   num("chunk_id"),
		Total:   num("total_chunks"),
		Metadata: rag.DocumentMetadata{
			Source:   str("source"),
			Title:    str("title"),
			Filename: str("filename"),
			FileType: str("file_type"),
		},
	}
}

var _ rag.VectorStore = (*QdrantVectorStore)(nil)

package store

import (
	"fmt"

	"github.com/easyops/adqa-go/pkg/core/config"
	"github.com/easyops/adqa-go/pkg/rag"
)

// NewVectorStore 根据配置创建向量存储
func NewVectorStore(cfg config.VectorConfig) (rag.VectorStore, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Backend {
	case config.VectorBackendQdrant:
		return NewQdrantVectorStore(QdrantConfig{
			URL:        cfg.Endpoint(),
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		})
	case config.VectorBackendMemory:
		return rag.NewInMemoryVectorStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

// Package server 提供问答服务的 HTTP 接口
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easyops/adqa-go/pkg/audit"
	"github.com/easyops/adqa-go/pkg/core/config"
	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/otel"
	"github.com/easyops/adqa-go/pkg/rag"
)

// Answerer 问答入口
type Answerer interface {
	AnswerWithDetails(ctx context.Context, query string) (*rag.Result, error)
}

// Counter 可统计条目数的存储，用于调试接口探测向量库
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// DebugInfo 调试接口展示的静态配置信息，只包含布尔值与名称
type DebugInfo struct {
	LLMProvider       string `json:"llm_provider"`
	LLMModel          string `json:"llm_model"`
	EmbeddingProvider string `json:"embedding_provider"`
	VectorBackend     string `json:"vector_backend"`
	Collection        string `json:"collection"`
	LLMKeySet         bool   `json:"llm_api_key_set"`
	EmbeddingKeySet   bool   `json:"embedding_api_key_set"`
	SerpAPIKeySet     bool   `json:"serpapi_key_set"`
	QdrantURLSet      bool   `json:"qdrant_url_set"`
	QdrantKeySet      bool   `json:"qdrant_api_key_set"`
}

// DebugInfoFromConfig 从配置提取调试信息
func DebugInfoFromConfig(cfg *config.Config) DebugInfo {
	return DebugInfo{
		LLMProvider:       string(cfg.LLM.Provider),
		LLMModel:          cfg.LLM.Model,
		EmbeddingProvider: string(cfg.Embedding.Provider),
		VectorBackend:     cfg.Vector.Backend,
		Collection:        cfg.Vector.Collection,
		LLMKeySet:         cfg.LLM.APIKey != "",
		EmbeddingKeySet:   cfg.Embedding.APIKey != "",
		SerpAPIKeySet:     cfg.Search.APIKey != "",
		QdrantURLSet:      cfg.Vector.URL != "",
		QdrantKeySet:      cfg.Vector.APIKey != "",
	}
}

// Server HTTP 服务
type Server struct {
	cfg      config.ServerConfig
	answerer Answerer
	recorder audit.Recorder
	vectors  Counter
	debug    DebugInfo
	logger   otel.Logger
	engine   *gin.Engine
}

// Option 服务选项
type Option func(*Server)

// WithRecorder 设置审计记录器
func WithRecorder(r audit.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithVectorStore 设置调试接口探测的向量库
func WithVectorStore(c Counter) Option {
	return func(s *Server) {
		s.vectors = c
	}
}

// WithDebugInfo 设置调试信息
func WithDebugInfo(info DebugInfo) Option {
	return func(s *Server) {
		s.debug = info
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger otel.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New 创建 HTTP 服务
func New(cfg config.ServerConfig, answerer Answerer, opts ...Option) *Server {
	cfg = cfg.WithDefaults()
	s := &Server{
		cfg:      cfg,
		answerer: answerer,
		recorder: audit.NewNoopRecorder(),
		logger:   otel.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.POST("/ask", s.handleAsk)
	engine.GET("/", s.handleHealth)
	engine.GET("/debug", s.handleDebug)
	s.engine = engine

	return s
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听端口直到 ctx 取消，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger 为每个请求分配 ID 并记录访问日志
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.WithContext(c.Request.Context()).Info("request handled",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

type askRequest struct {
	Query string `json:"query"`
}

// validateQuery 校验并裁剪查询，长度按未裁剪的原始输入计算
func validateQuery(query string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", errors.ErrEmptyQuery
	}
	if utf8.RuneCountInString(query) > maxLen {
		return "", errors.ErrQueryTooLong
	}
	return trimmed, nil
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	logger := s.logger.WithContext(c.Request.Context()).With("request_id", c.GetString("request_id"))
	logger.Info("received query", "length", utf8.RuneCountInString(req.Query))

	query, err := validateQuery(req.Query, s.cfg.MaxQueryLength)
	switch {
	case stderrors.Is(err, errors.ErrEmptyQuery):
		logger.Warn("empty query received")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	case stderrors.Is(err, errors.ErrQueryTooLong):
		logger.Warn("query too long", "length", utf8.RuneCountInString(req.Query))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Query is too long. Please limit to %d characters.", s.cfg.MaxQueryLength),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.answerer.AnswerWithDetails(ctx, query)
	if err != nil {
		logger.Error("query processing failed", "error", err, "error_type", errors.Classify(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "An error occurred while processing your query: " + err.Error(),
			"status": "error",
			"query":  req.Query,
		})
		return
	}

	// 审计失败不影响回答
	if err := s.recorder.Record(c.Request.Context(), audit.NewEntry(query, result)); err != nil {
		logger.Warn("failed to record audit entry", "error", err)
	}

	logger.Info("query processed",
		"outcome", result.Outcome.String(),
		"answer_length", utf8.RuneCountInString(result.Answer),
		"duration_ms", result.Duration.Milliseconds(),
	)
	c.JSON(http.StatusOK, gin.H{"answer": result.Answer, "status": "success"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "AI API is running"})
}

func (s *Server) handleDebug(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	vector := gin.H{"configured": s.vectors != nil}
	if s.vectors != nil {
		n, err := s.vectors.Count(ctx)
		vector["reachable"] = err == nil
		if err != nil {
			vector["error"] = err.Error()
		} else {
			vector["points"] = n
		}
	}

	audits, err := s.recorder.Count(ctx)
	if err != nil {
		s.logger.WithContext(ctx).Warn("failed to count audit entries", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"config":        s.debug,
		"vector_store":  vector,
		"audit_entries": audits,
	})
}

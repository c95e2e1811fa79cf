package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/easyops/adqa-go/pkg/audit"
	"github.com/easyops/adqa-go/pkg/core/config"
	"github.com/easyops/adqa-go/pkg/core/llm"
	"github.com/easyops/adqa-go/pkg/otel"
	"github.com/easyops/adqa-go/pkg/rag"
	"github.com/easyops/adqa-go/pkg/search"
	"github.com/easyops/adqa-go/pkg/store"
)

// app 命令共享的依赖
type app struct {
	cfg      *config.Config
	obs      *otel.Provider
	logger   otel.Logger
	// embedder 查询路径，不重试
	embedder llm.Provider
	vectors  rag.VectorStore
	recorder audit.Recorder
	closers  []func() error
}

// newApp 加载配置并初始化可观测性、嵌入模型、向量库和审计
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	obs, err := otel.NewProvider(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	otel.SetGlobal(obs)

	a := &app{cfg: cfg, obs: obs, logger: obs.Logger()}

	a.embedder, err = a.newEmbedder(ctx, cfg.Embedding.ForQueries())
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.vectors, err = store.NewVectorStore(cfg.Vector)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	a.recorder, err = audit.FromConfig(cfg.Audit)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init audit: %w", err)
	}
	a.closers = append(a.closers, a.recorder.Close)

	a.logger.Info("application initialized",
		"llm_provider", cfg.LLM.Provider,
		"embedding_provider", cfg.Embedding.Provider,
		"vector_backend", cfg.Vector.Backend,
		"collection", cfg.Vector.Collection,
		"audit", cfg.Audit.Enabled,
	)
	return a, nil
}

func (a *app) newEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (llm.Provider, error) {
	embedder, err := llm.EmbedderFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	traced := llm.NewTracedProvider(embedder, llm.WithTracer(a.obs.Tracer()), llm.WithMetrics(a.obs.Metrics()))
	a.closers = append(a.closers, traced.Close)
	return traced, nil
}

// ingestEmbedder 摄取使用的嵌入模型，按 embedding.max_retries 重试
func (a *app) ingestEmbedder(ctx context.Context) (llm.Provider, error) {
	return a.newEmbedder(ctx, a.cfg.Embedding)
}

// orchestrator 组装问答编排器：网页搜索优先，向量检索其次
func (a *app) orchestrator(ctx context.Context) (*rag.Orchestrator, error) {
	cfg := a.cfg

	generator, err := llm.FromConfig(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	traced := llm.NewTracedProvider(generator, llm.WithTracer(a.obs.Tracer()), llm.WithMetrics(a.obs.Metrics()))
	a.closers = append(a.closers, traced.Close)

	prompts, err := rag.NewPromptBuilder(cfg.Answer.PromptTemplate)
	if err != nil {
		return nil, err
	}

	sourceOpts := []search.Option{
		search.WithTracer(a.obs.Tracer()),
		search.WithMetrics(a.obs.Metrics()),
		search.WithLogger(a.logger),
	}
	web := search.NewWebSearch(cfg.Search, sourceOpts...)
	vector := search.NewVectorSearch(rag.NewVectorRetriever(a.vectors, a.embedder), cfg.Vector.TopK, sourceOpts...)

	return rag.NewOrchestrator(
		rag.NewAnswerGenerator(traced, rag.WithGeneratorLogger(a.logger)),
		rag.WithSources(web, vector),
		rag.WithAssembler(rag.NewContextAssembler(cfg.Answer.ContextBudget, rag.WithMinRemainder(cfg.Answer.MinRemainder))),
		rag.WithPromptBuilder(prompts),
		rag.WithFallback(rag.NewFallbackResponder(
			rag.WithPreviewLength(cfg.Answer.PreviewLength),
			rag.WithPreviewParts(cfg.Answer.PreviewParts),
		)),
		rag.WithTokenCounter(rag.NewTiktokenCounter(cfg.LLM.Model)),
		rag.WithTracer(a.obs.Tracer()),
		rag.WithMetrics(a.obs.Metrics()),
		rag.WithLogger(a.logger),
	), nil
}

// Close 按创建的逆序释放资源
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

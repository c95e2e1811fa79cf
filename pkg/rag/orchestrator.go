package rag

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/easyops/adqa-go/pkg/otel"
)

// Result 单次问答的详细结果
type Result struct {
	// Answer 最终回答，永不为空
	Answer string
	// Outcome 生成结果类别
	Outcome OutcomeKind
	// Reason 拒绝原因
	Reason string
	// Cause 传输错误
	Cause error
	// Context 组装后的上下文
	Context AssembledContext
	// SourceCounts 每个来源返回的片段数，顺序与来源优先级一致
	SourceCounts []int
	// PromptTokens 提示词的估算 Token 数
	PromptTokens int
	// Duration 总耗时
	Duration time.Duration
}

// FellBack 是否使用了兜底回答
func (r *Result) FellBack() bool {
	return r.Outcome == OutcomeMalformed || r.Outcome == OutcomeTransportError
}

// Orchestrator 问答编排器
//
// 检索、组装、渲染、生成依次进行，每个外部调用每次查询最多一次。
// Orchestrator 不持有跨请求的可变状态，可被并发使用。
type Orchestrator struct {
	sources   []SnippetSource
	fusion    FusionStrategy
	assembler *ContextAssembler
	prompts   *PromptBuilder
	generator *AnswerGenerator
	fallback  *FallbackResponder
	counter   TokenCounter

	tracer  otel.Tracer
	metrics otel.Metrics
	logger  otel.Logger
}

// OrchestratorOption 编排器选项
type OrchestratorOption func(*Orchestrator)

// WithSources 设置检索来源，按优先级从高到低排列
func WithSources(sources ...SnippetSource) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sources = sources
	}
}

// WithAssembler 设置上下文组装器
func WithAssembler(a *ContextAssembler) OrchestratorOption {
	return func(o *Orchestrator) {
		o.assembler = a
	}
}

// WithPromptBuilder 设置提示词渲染器
func WithPromptBuilder(b *PromptBuilder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.prompts = b
	}
}

// WithFallback 设置兜底回答器
func WithFallback(f *FallbackResponder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fallback = f
	}
}

// WithFusion 设置融合策略
func WithFusion(f FusionStrategy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fusion = f
	}
}

// WithTokenCounter 设置 Token 计数器
func WithTokenCounter(c TokenCounter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.counter = c
	}
}

// WithTracer 设置追踪器
func WithTracer(t otel.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithMetrics 设置指标
func WithMetrics(m otel.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger 设置日志
func WithLogger(l otel.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// NewOrchestrator 创建编排器
func NewOrchestrator(generator *AnswerGenerator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		tracer:    otel.NewNoopTracer(),
		metrics:   otel.NewNoopMetrics(),
		logger:    otel.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.fusion == nil {
		o.fusion = NewPriorityFusion()
	}
	if o.assembler == nil {
		o.assembler = NewContextAssembler(DefaultContextBudget)
	}
	if o.prompts == nil {
		o.prompts = MustPromptBuilder(DefaultPromptTemplate)
	}
	if o.fallback == nil {
		o.fallback = NewFallbackResponder()
	}
	if o.counter == nil {
		o.counter = EstimatedCounter{}
	}

	return o
}

// Answer 回答问题
//
// 只有组装器或模板缺陷返回错误；检索和生成的失败都在内部降级。
func (o *Orchestrator) Answer(ctx context.Context, query string) (string, error) {
	res, err := o.AnswerWithDetails(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// AnswerWithDetails 回答问题并返回各阶段的详细信息
func (o *Orchestrator) AnswerWithDetails(ctx context.Context, query string) (res *Result, err error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "answer")
	span.SetAttributes(otel.QueryLength(len(query)))
	defer func() { otel.EndSpan(span, err) }()

	o.metrics.Counter(otel.MetricAnswerRequests).Add(ctx, 1)
	logger := o.logger.WithContext(ctx)

	res = &Result{}

	// Retrieving
	snippets, counts := o.retrieve(ctx, query)
	res.SourceCounts = counts

	// Assembling
	assembled, err := o.assemble(ctx, snippets)
	if err != nil {
		logger.Error("context assembly failed", "error", err.Error())
		return nil, err
	}
	res.Context = assembled

	// Prompting
	prompt, err := o.buildPrompt(ctx, assembled, query)
	if err != nil {
		logger.Error("prompt rendering failed", "error", err.Error())
		return nil, err
	}
	res.PromptTokens = o.counter.Count(prompt)

	// Generating
	outcome := o.generate(ctx, prompt)
	res.Outcome = outcome.Kind
	res.Reason = outcome.Reason
	res.Cause = outcome.Cause

	switch outcome.Kind {
	case OutcomeSuccess:
		res.Answer = outcome.Text
	case OutcomeRefused:
		logger.Warn("answer refused by provider", "reason", outcome.Reason)
		res.Answer = SafetyMessage
	default:
		res.Answer = o.respondFallback(ctx, assembled, outcome.Kind)
	}

	res.Duration = time.Since(start)
	span.SetAttributes(otel.Outcome(outcome.Kind.String()))
	o.metrics.Counter(otel.MetricAnswerOutcomes).Add(ctx, 1, otel.NewAttr(otel.AttrOutcome, outcome.Kind.String()))
	o.metrics.Histogram(otel.MetricAnswerDuration).Record(ctx, float64(res.Duration.Milliseconds()))

	logger.Info("answer completed",
		"outcome", outcome.Kind.String(),
		"context_chars", assembled.Len(),
		"context_parts", len(assembled.Parts()),
		"prompt_tokens", res.PromptTokens,
		"duration_ms", res.Duration.Milliseconds(),
	)

	return res, nil
}

// retrieve 并发调用所有来源，结果按来源优先级融合
func (o *Orchestrator) retrieve(ctx context.Context, query string) ([]string, []int) {
	ctx, span := o.tracer.Start(ctx, "answer.retrieve")
	defer span.End()

	results := make([][]string, len(o.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			results[i] = NormalizeSnippets(src.Search(gctx, query))
			return nil
		})
	}
	// 来源不返回错误
	_ = g.Wait()

	counts := make([]int, len(results))
	for i, r := range results {
		counts[i] = len(r)
		o.metrics.Histogram(otel.MetricRetrievalSnippets).Record(ctx, float64(len(r)),
			otel.NewAttr(otel.AttrSource, o.sources[i].Name()))
	}

	merged := o.fusion.Fuse(results)
	span.SetAttributes(otel.SnippetCount(len(merged)))
	return merged, counts
}

func (o *Orchestrator) assemble(ctx context.Context, snippets []string) (assembled AssembledContext, err error) {
	_, span := o.tracer.Start(ctx, "answer.assemble")
	defer func() { otel.EndSpan(span, err) }()

	assembled, err = o.assembler.Assemble(snippets)
	if err != nil {
		return assembled, err
	}

	span.SetAttributes(otel.ContextAttrs(assembled.Len(), len(assembled.Parts()), assembled.Truncated())...)
	o.metrics.Histogram(otel.MetricContextChars).Record(ctx, float64(assembled.Len()))
	if assembled.Truncated() {
		o.metrics.Counter(otel.MetricContextTruncated).Add(ctx, 1)
	}
	return assembled, nil
}

func (o *Orchestrator) buildPrompt(ctx context.Context, assembled AssembledContext, query string) (prompt string, err error) {
	_, span := o.tracer.Start(ctx, "answer.prompt")
	defer func() { otel.EndSpan(span, err) }()

	return o.prompts.Build(assembled, query)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) GenerationOutcome {
	ctx, span := o.tracer.Start(ctx, "answer.generate")
	defer span.End()

	outcome := o.generator.Generate(ctx, prompt)
	span.SetAttributes(otel.Outcome(outcome.Kind.String()))
	if outcome.Cause != nil {
		span.RecordError(outcome.Cause)
	}
	return outcome
}

func (o *Orchestrator) respondFallback(ctx context.Context, assembled AssembledContext, reason OutcomeKind) string {
	_, span := o.tracer.Start(ctx, "answer.fallback")
	defer span.End()

	o.logger.WithContext(ctx).Warn("falling back to context-derived answer",
		"reason", reason.String(),
		"context_parts", len(assembled.Parts()),
	)
	return o.fallback.Respond(assembled.Parts(), reason)
}

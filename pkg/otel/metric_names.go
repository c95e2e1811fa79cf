package otel

// 预定义的指标名称
const (
	// 问答指标
	MetricAnswerRequests = "answer.requests" // 计数器: 问答请求次数
	MetricAnswerDuration = "answer.duration" // 直方图: 问答耗时(ms)
	MetricAnswerOutcomes = "answer.outcomes" // 计数器: 按结果分类的回答次数

	// 检索与组装指标
	MetricRetrievalSnippets = "retrieval.snippets" // 直方图: 每个来源返回的片段数
	MetricContextChars      = "context.chars"      // 直方图: 组装后的上下文长度
	MetricContextTruncated  = "context.truncated"  // 计数器: 上下文被截断的次数

	// LLM 指标
	MetricLLMRequests        = "llm.requests"         // 计数器: LLM 请求次数
	MetricLLMRequestDuration = "llm.request.duration" // 直方图: LLM 请求时间(ms)
	MetricLLMTokensTotal     = "llm.tokens.total"     // 计数器: 总 Token 数
	MetricLLMErrors          = "llm.errors"           // 计数器: LLM 错误次数

	// 外部依赖指标
	MetricSearchErrors = "search.errors" // 计数器: 检索来源失败次数
	MetricIngestChunks = "ingest.chunks" // 计数器: 入库文本块数
	MetricVectorPoints = "vector.points" // 仪表: 入库后集合中的点数
)

// MetricUnit 指标单位
type MetricUnit string

const (
	UnitNone         MetricUnit = ""
	UnitMilliseconds MetricUnit = "ms"
	UnitCount        MetricUnit = "1"
	UnitCharacters   MetricUnit = "{char}"
)

// MetricDescription 指标描述
type MetricDescription struct {
	Name        string
	Description string
	Unit        MetricUnit
	Type        string // counter, histogram, gauge
}

// PredefinedMetrics 预定义指标列表
var PredefinedMetrics = []MetricDescription{
	{MetricAnswerRequests, "Number of answer requests", UnitCount, "counter"},
	{MetricAnswerDuration, "Duration of answer requests", UnitMilliseconds, "histogram"},
	{MetricAnswerOutcomes, "Number of answers by generation outcome", UnitCount, "counter"},

	{MetricRetrievalSnippets, "Snippets returned per retrieval source", UnitCount, "histogram"},
	{MetricContextChars, "Length of the assembled context", UnitCharacters, "histogram"},
	{MetricContextTruncated, "Number of assembled contexts that were truncated", UnitCount, "counter"},

	{MetricLLMRequests, "Number of LLM requests", UnitCount, "counter"},
	{MetricLLMRequestDuration, "Duration of LLM requests", UnitMilliseconds, "histogram"},
	{MetricLLMTokensTotal, "Total number of tokens", UnitCount, "counter"},
	{MetricLLMErrors, "Number of LLM errors", UnitCount, "counter"},

	{MetricSearchErrors, "Number of failed retrieval source calls", UnitCount, "counter"},
	{MetricIngestChunks, "Number of document chunks indexed", UnitCount, "counter"},
	{MetricVectorPoints, "Points held by the vector collection after ingestion", UnitCount, "gauge"},
}

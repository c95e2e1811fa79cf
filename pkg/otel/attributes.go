package otel

import "go.opentelemetry.io/otel/attribute"

// 预定义的语义属性键
const (
	// LLM 相关属性
	AttrLLMProvider         = "llm.provider"
	AttrLLMModel            = "llm.model"
	AttrLLMPromptTokens     = "llm.prompt_tokens"
	AttrLLMCompletionTokens = "llm.completion_tokens"
	AttrLLMTotalTokens      = "llm.total_tokens"
	AttrLLMFinishReason     = "llm.finish_reason"

	// 问答流水线相关属性
	AttrQueryLength      = "answer.query_length"
	AttrOutcome          = "answer.outcome"
	AttrSource           = "retrieval.source"
	AttrSnippetCount     = "retrieval.snippet_count"
	AttrContextChars     = "context.chars"
	AttrContextParts     = "context.parts"
	AttrContextTruncated = "context.truncated"
	AttrTopK             = "vector.top_k"
	AttrCollection       = "vector.collection"

	// Error 相关属性
	AttrErrorType      = "error.type"
	AttrErrorMessage   = "error.message"
	AttrErrorRetryable = "error.retryable"
)

// LLMProvider 创建 LLM 提供商属性
func LLMProvider(provider string) attribute.KeyValue {
	return attribute.String(AttrLLMProvider, provider)
}

// LLMModel 创建 LLM 模型属性
func LLMModel(model string) attribute.KeyValue {
	return attribute.String(AttrLLMModel, model)
}

// LLMTokens 创建 LLM Token 使用属性
func LLMTokens(prompt, completion, total int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrLLMPromptTokens, prompt),
		attribute.Int(AttrLLMCompletionTokens, completion),
		attribute.Int(AttrLLMTotalTokens, total),
	}
}

// QueryLength 创建查询长度属性
func QueryLength(n int) attribute.KeyValue {
	return attribute.Int(AttrQueryLength, n)
}

// Source 创建检索来源属性
func Source(name string) attribute.KeyValue {
	return attribute.String(AttrSource, name)
}

// SnippetCount 创建片段数量属性
func SnippetCount(n int) attribute.KeyValue {
	return attribute.Int(AttrSnippetCount, n)
}

// ContextAttrs 创建上下文组装结果属性
func ContextAttrs(chars, parts int, truncated bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrContextChars, chars),
		attribute.Int(AttrContextParts, parts),
		attribute.Bool(AttrContextTruncated, truncated),
	}
}

// Outcome 创建生成结果属性
func Outcome(kind string) attribute.KeyValue {
	return attribute.String(AttrOutcome, kind)
}

// ErrorAttrs 创建错误属性
func ErrorAttrs(errType, message string, retryable bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, message),
		attribute.Bool(AttrErrorRetryable, retryable),
	}
}

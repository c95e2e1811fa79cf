// Package errors 定义问答服务的通用错误类型
package errors

import (
	"context"
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// LLM 相关错误
var (
	// ErrRateLimited 请求被限速
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded 配额耗尽
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("request timeout")
	// ErrInvalidAPIKey API 密钥无效
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrModelNotFound 模型未找到
	ErrModelNotFound = errors.New("model not found")
	// ErrProviderUnavailable 提供商不可用
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidResponse LLM 响应无效
	ErrInvalidResponse = errors.New("invalid LLM response")
	// ErrContentBlocked 提示词被提供商的安全策略拦截
	ErrContentBlocked = errors.New("content blocked by provider")
)

// 检索相关错误
var (
	// ErrSearchFailed 网页搜索失败
	ErrSearchFailed = errors.New("web search failed")
	// ErrEmbeddingFailed 嵌入失败
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrVectorStoreFailed 向量存储失败
	ErrVectorStoreFailed = errors.New("vector store operation failed")
)

// 编程缺陷（不可恢复，向调用方传播）
var (
	// ErrInvalidBudget 上下文预算无效
	ErrInvalidBudget = errors.New("context budget must be positive")
	// ErrPromptTemplate 提示词模板无效或渲染失败
	ErrPromptTemplate = errors.New("prompt template error")
)

// 请求校验错误
var (
	// ErrEmptyQuery 查询为空
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrQueryTooLong 查询过长
	ErrQueryTooLong = errors.New("query is too long")
)

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrProviderUnavailable)
}

// IsFatal 判断错误是否为致命错误（不可恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrModelNotFound) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrQuotaExceeded)
}

// IsDefect 判断错误是否为编程缺陷
func IsDefect(err error) bool {
	return errors.Is(err, ErrInvalidBudget) || errors.Is(err, ErrPromptTemplate)
}

// Classify 返回错误的分类名称，用于日志与指标
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidAPIKey):
		return "auth"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrContextCanceled), errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, ErrContentBlocked):
		return "blocked"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrInvalidConfig):
		return "config"
	case errors.Is(err, ErrSearchFailed):
		return "search"
	case errors.Is(err, ErrEmbeddingFailed):
		return "embedding"
	case errors.Is(err, ErrVectorStoreFailed):
		return "vector_store"
	default:
		return "unknown"
	}
}

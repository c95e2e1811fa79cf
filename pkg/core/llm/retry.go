package llm

import (
	"context"
	"math"
	"time"

	"github.com/easyops/adqa-go/pkg/core/errors"
)

// RetryFunc 可重试的函数类型
type RetryFunc func() error

// retry 执行带指数退避的重试
//
// 只用于嵌入请求。生成请求在问答路径上失败时直接降级，不重试。
func retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn RetryFunc) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return errors.ErrContextCanceled
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			return err
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return errors.ErrContextCanceled
			case <-time.After(calculateBackoff(attempt, baseDelay)):
			}
		}
	}

	return lastErr
}

// calculateBackoff 计算指数退避时间
// 使用公式: baseDelay * 2^attempt * 1.1，最大 30 秒
func calculateBackoff(attempt int, baseDelay time.Duration) time.Duration {
	delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(attempt)) * 1.1)

	if maxDelay := 30 * time.Second; delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

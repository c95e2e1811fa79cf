// Package audit 记录问答审计日志
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/easyops/adqa-go/pkg/rag"
)

// Entry 一次问答的审计记录
type Entry struct {
	ID         string
	Query      string
	Outcome    string
	AnswerLen  int
	ContextLen int
	Parts      int
	Truncated  bool
	Duration   time.Duration
	CreatedAt  time.Time
}

// NewEntry 根据问答结果生成审计记录
func NewEntry(query string, result *rag.Result) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Query:      query,
		Outcome:    result.Outcome.String(),
		AnswerLen:  len([]rune(result.Answer)),
		ContextLen: result.Context.Len(),
		Parts:      len(result.Context.Parts()),
		Truncated:  result.Context.Truncated(),
		Duration:   result.Duration,
		CreatedAt:  time.Now(),
	}
}

// Recorder 审计记录器接口
type Recorder interface {
	// Record 写入一条记录
	Record(ctx context.Context, entry Entry) error
	// Recent 按时间倒序返回最近的记录
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// Count 返回记录总数
	Count(ctx context.Context) (int, error)
	// Close 释放资源
	Close() error
}

// NoopRecorder 不记录任何内容
type NoopRecorder struct{}

// NewNoopRecorder 创建空记录器
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) Record(ctx context.Context, entry Entry) error          { return nil }
func (NoopRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) { return nil, nil }
func (NoopRecorder) Count(ctx context.Context) (int, error)                 { return 0, nil }
func (NoopRecorder) Close() error                                           { return nil }

var _ Recorder = (*NoopRecorder)(nil)

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/easyops/adqa-go/pkg/core/config"
)

// SQLiteRecorder 基于 SQLite 的审计记录器
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder 打开（或创建）审计数据库
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return r, nil
}

// FromConfig 按配置创建记录器，未启用时返回 NoopRecorder
func FromConfig(cfg config.AuditConfig) (Recorder, error) {
	if !cfg.Enabled {
		return NewNoopRecorder(), nil
	}
	return NewSQLiteRecorder(cfg.WithDefaults().Path)
}

func (r *SQLiteRecorder) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		outcome TEXT NOT NULL,
		answer_len INTEGER NOT NULL,
		context_len INTEGER NOT NULL,
		parts INTEGER NOT NULL,
		truncated INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at);
	`

	_, err := r.db.Exec(query)
	return err
}

// Record 写入一条记录
func (r *SQLiteRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO answers (id, query, outcome, answer_len, context_len, parts, truncated, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Query, entry.Outcome,
		entry.AnswerLen, entry.ContextLen, entry.Parts, entry.Truncated,
		entry.Duration.Milliseconds(), entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近的记录
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, query, outcome, answer_len, context_len, parts, truncated, duration_ms, created_at
	FROM answers
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.Query, &e.Outcome, &e.AnswerLen, &e.ContextLen,
			&e.Parts, &e.Truncated, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count 返回记录总数
func (r *SQLiteRecorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answers`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close 关闭数据库
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

var _ Recorder = (*SQLiteRecorder)(nil)

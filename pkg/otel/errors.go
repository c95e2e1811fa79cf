package otel

import "errors"

// 可观测性相关错误
var (
	// ErrInvalidSampleRate 采样率无效
	ErrInvalidSampleRate = errors.New("sample rate must be between 0 and 1")
	// ErrInvalidLogFormat 日志格式无效
	ErrInvalidLogFormat = errors.New("log format must be text or json")
	// ErrUnsupportedExporter 导出器类型不支持
	ErrUnsupportedExporter = errors.New("unsupported exporter type")
)

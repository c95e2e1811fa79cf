package config

import "errors"

// 配置验证相关错误
var (
	// ErrModelRequired 模型名称必填
	ErrModelRequired = errors.New("model name is required")
	// ErrInvalidProvider 提供商无效
	ErrInvalidProvider = errors.New("unsupported provider")
	// ErrInvalidTimeout 超时时间无效
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidTemperature 温度值无效
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	// ErrInvalidBudget 上下文预算无效
	ErrInvalidBudget = errors.New("context budget must be positive")
	// ErrInvalidPreview 预览参数无效
	ErrInvalidPreview = errors.New("preview length and parts must be positive")
	// ErrInvalidBackend 向量存储后端无效
	ErrInvalidBackend = errors.New("invalid vector backend")
	// ErrUnsupportedFormat 配置文件格式不支持
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

package store

import "errors"

// Store errors
var (
	// ErrInvalidInput 无效输入
	ErrInvalidInput = errors.New("invalid input")
	// ErrConnectionFailed 连接失败
	ErrConnectionFailed = errors.New("connection failed")
	// ErrCollectionNotExists 集合不存在
	ErrCollectionNotExists = errors.New("collection not exists")
	// ErrDimensionMismatch 向量维度与集合不一致
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

package rag

// FusionStrategy 融合策略接口
// 合并多个来源的片段
type FusionStrategy interface {
	// Fuse 融合多个结果集，results 按来源优先级排列
	Fuse(results [][]string) []string
}

// PriorityFusion 按来源优先级拼接
//
// 高优先级来源的全部片段排在前面，来源内部保持原顺序，不去重也不按内容重排。
type PriorityFusion struct{}

// NewPriorityFusion 创建优先级拼接策略
func NewPriorityFusion() *PriorityFusion {
	return &PriorityFusion{}
}

// Fuse 执行拼接
func (f *PriorityFusion) Fuse(results [][]string) []string {
	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]string, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

var _ FusionStrategy = (*PriorityFusion)(nil)

package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/easyops/adqa-go/pkg/core/errors"
)

const (
	// DefaultContextBudget 默认上下文预算（字符）
	DefaultContextBudget = 4000
	// DefaultMinRemainder 截断尾部片段所需的最小剩余空间（字符）
	DefaultMinRemainder = 100
	// PartSeparator 片段分隔符
	PartSeparator = "\n\n"
	// TruncationMarker 截断标记
	TruncationMarker = "..."
)

var (
	separatorLen = utf8.RuneCountInString(PartSeparator)
	markerLen    = utf8.RuneCountInString(TruncationMarker)
)

// AssembledContext 组装后的有界上下文，创建后不可变
type AssembledContext struct {
	text      string
	parts     []string
	length    int
	truncated bool
}

// Text 返回以分隔符连接的上下文文本
func (c AssembledContext) Text() string {
	return c.text
}

// String 实现 fmt.Stringer
func (c AssembledContext) String() string {
	return c.text
}

// Len 返回上下文的字符数
func (c AssembledContext) Len() int {
	return c.length
}

// Parts 返回被纳入的片段副本，最后一个可能是带标记的截断片段
func (c AssembledContext) Parts() []string {
	out := make([]string, len(c.parts))
	copy(out, c.parts)
	return out
}

// Truncated 最后一个片段是否被截断
func (c AssembledContext) Truncated() bool {
	return c.truncated
}

// IsEmpty 是否没有任何片段
func (c AssembledContext) IsEmpty() bool {
	return len(c.parts) == 0
}

// ContextAssembler 把有序片段装入固定字符预算
//
// 长度以 Unicode 字符计，分隔符计入成本，因此结果长度严格不超过预算。
type ContextAssembler struct {
	budget       int
	minRemainder int
}

// AssemblerOption 组装器选项
type AssemblerOption func(*ContextAssembler)

// WithMinRemainder 设置截断尾部片段所需的最小剩余空间
func WithMinRemainder(n int) AssemblerOption {
	return func(a *ContextAssembler) {
		a.minRemainder = n
	}
}

// NewContextAssembler 创建组装器
func NewContextAssembler(budget int, opts ...AssemblerOption) *ContextAssembler {
	a := &ContextAssembler{
		budget:       budget,
		minRemainder: DefaultMinRemainder,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Budget 返回上下文预算
func (a *ContextAssembler) Budget() int {
	return a.budget
}

// Assemble 按顺序装入片段
//
// 片段整体放得下（累计长度严格小于预算）时整体纳入；否则当剩余空间大于
// minRemainder 时纳入一个带标记的截断副本并停止，不足时直接停止。
// 预算不为正属于编程缺陷，返回 ErrInvalidBudget。
func (a *ContextAssembler) Assemble(parts []string) (AssembledContext, error) {
	if a.budget <= 0 {
		return AssembledContext{}, errors.ErrInvalidBudget
	}

	var (
		included  []string
		total     int
		truncated bool
	)

	for _, part := range parts {
		if part == "" {
			continue
		}

		sep := 0
		if len(included) > 0 {
			sep = separatorLen
		}
		size := utf8.RuneCountInString(part)

		if total+sep+size < a.budget {
			included = append(included, part)
			total += sep + size
			continue
		}

		remaining := a.budget - total
		if remaining > a.minRemainder {
			room := remaining - sep
			if size <= room {
				included = append(included, part)
				total += sep + size
			} else if avail := room - markerLen; avail > 0 {
				included = append(included, truncateRunes(part, avail)+TruncationMarker)
				total += sep + avail + markerLen
				truncated = true
			}
		}
		break
	}

	return AssembledContext{
		text:      strings.Join(included, PartSeparator),
		parts:     included,
		length:    total,
		truncated: truncated,
	}, nil
}

// truncateRunes 返回前 n 个字符
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

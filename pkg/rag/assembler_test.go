package rag_test

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/rag"
)

func TestAssemble_Empty(t *testing.T) {
	for _, budget := range []int{1, 50, 4000} {
		got, err := rag.NewContextAssembler(budget).Assemble(nil)
		require.NoError(t, err)
		assert.Equal(t, "", got.Text())
		assert.True(t, got.IsEmpty())
		assert.Equal(t, 0, got.Len())
	}
}

func TestAssemble_AllPartsFit(t *testing.T) {
	parts := []string{"first snippet here", "second snippet here", "third snippet here"}

	got, err := rag.NewContextAssembler(4000).Assemble(parts)
	require.NoError(t, err)

	assert.Equal(t, strings.Join(parts, "\n\n"), got.Text())
	assert.Equal(t, parts, got.Parts())
	assert.False(t, got.Truncated())
	assert.Equal(t, utf8.RuneCountInString(got.Text()), got.Len())
}

func TestAssemble_PriorityOrder(t *testing.T) {
	merged := rag.NewPriorityFusion().Fuse([][]string{{"a1", "a2"}, {"b1"}})

	got, err := rag.NewContextAssembler(4000).Assemble(merged)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, got.Parts())
}

func TestAssemble_TruncatesSinglePart(t *testing.T) {
	part := strings.Repeat("x", 500)

	got, err := rag.NewContextAssembler(150).Assemble([]string{part})
	require.NoError(t, err)

	assert.Equal(t, 150, utf8.RuneCountInString(got.Text()))
	assert.True(t, strings.HasSuffix(got.Text(), rag.TruncationMarker))
	assert.True(t, strings.HasPrefix(part, strings.TrimSuffix(got.Text(), rag.TruncationMarker)))
	assert.True(t, got.Truncated())
	assert.Len(t, got.Parts(), 1)
}

func TestAssemble_RemainderTooSmall(t *testing.T) {
	got, err := rag.NewContextAssembler(50).Assemble([]string{strings.Repeat("x", 500)})
	require.NoError(t, err)
	assert.Equal(t, "", got.Text())
	assert.True(t, got.IsEmpty())

	// 第二个片段只剩 50 个字符，不足以截断
	got, err = rag.NewContextAssembler(150).Assemble([]string{strings.Repeat("a", 100), strings.Repeat("b", 100)})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 100), got.Text())
	assert.False(t, got.Truncated())
}

func TestAssemble_TruncatesTailAfterWholeParts(t *testing.T) {
	parts := []string{strings.Repeat("a", 100), strings.Repeat("b", 400), strings.Repeat("c", 50)}

	got, err := rag.NewContextAssembler(300).Assemble(parts)
	require.NoError(t, err)

	require.Len(t, got.Parts(), 2)
	assert.Equal(t, parts[0], got.Parts()[0])
	assert.True(t, strings.HasPrefix(got.Parts()[1], "bbb"))
	assert.Equal(t, 300, got.Len())
	assert.NotContains(t, got.Text(), "c")
}

func TestAssemble_StrictBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []rune("abcdefgh ñéü你好")

	for i := 0; i < 500; i++ {
		budget := 1 + rng.Intn(1200)
		parts := make([]string, rng.Intn(8))
		for j := range parts {
			n := 1 + rng.Intn(400)
			var sb strings.Builder
			for k := 0; k < n; k++ {
				sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
			}
			parts[j] = sb.String()
		}

		got, err := rag.NewContextAssembler(budget).Assemble(parts)
		require.NoError(t, err)

		length := utf8.RuneCountInString(got.Text())
		require.LessOrEqualf(t, length, budget, "budget %d parts %d", budget, len(parts))
		require.Equal(t, length, got.Len())
		assert.True(t, utf8.ValidString(got.Text()))
	}
}

func TestAssemble_SumBelowBudgetKeepsEverything(t *testing.T) {
	parts := []string{"alpha alpha", "beta beta beta", "gamma gamma"}
	got, err := rag.NewContextAssembler(100).Assemble(parts)
	require.NoError(t, err)
	assert.Equal(t, "alpha alpha\n\nbeta beta beta\n\ngamma gamma", got.Text())
}

// 片段之和小于预算，但加上分隔符后超出，尾部片段仍被截断
func TestAssemble_SeparatorCountsAgainstBudget(t *testing.T) {
	parts := []string{strings.Repeat("a", 99), strings.Repeat("b", 100)}

	got, err := rag.NewContextAssembler(200).Assemble(parts)
	require.NoError(t, err)

	require.Len(t, got.Parts(), 2)
	assert.Equal(t, parts[0], got.Parts()[0])
	assert.Equal(t, strings.Repeat("b", 96)+rag.TruncationMarker, got.Parts()[1])
	assert.True(t, got.Truncated())
	assert.Equal(t, 200, got.Len())
	assert.Equal(t, 200, utf8.RuneCountInString(got.Text()))

	// 预算再多两个字符即可容纳分隔符，两个片段完整保留
	got, err = rag.NewContextAssembler(202).Assemble(parts)
	require.NoError(t, err)
	assert.Equal(t, parts, got.Parts())
	assert.False(t, got.Truncated())
}

func TestAssemble_InvalidBudget(t *testing.T) {
	for _, budget := range []int{0, -1} {
		_, err := rag.NewContextAssembler(budget).Assemble([]string{"some snippet"})
		assert.ErrorIs(t, err, errors.ErrInvalidBudget)
		assert.True(t, errors.IsDefect(err))
	}
}

func TestAssembledContext_PartsIsCopy(t *testing.T) {
	got, err := rag.NewContextAssembler(4000).Assemble([]string{"original snippet"})
	require.NoError(t, err)

	parts := got.Parts()
	parts[0] = "mutated"
	assert.Equal(t, "original snippet", got.Parts()[0])
}

func TestAssemble_MinRemainderOption(t *testing.T) {
	got, err := rag.NewContextAssembler(50, rag.WithMinRemainder(10)).Assemble([]string{strings.Repeat("x", 500)})
	require.NoError(t, err)
	assert.Equal(t, 50, got.Len())
	assert.True(t, got.Truncated())
}

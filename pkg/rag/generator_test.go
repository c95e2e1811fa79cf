package rag_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/core/llm"
	"github.com/easyops/adqa-go/pkg/rag"
)

func TestAnswerGenerator_Classify(t *testing.T) {
	tests := []struct {
		name     string
		resp     llm.Response
		wantKind rag.OutcomeKind
		wantText string
	}{
		{
			name:     "convenience text",
			resp:     textResponse("Targeting options include..."),
			wantKind: rag.OutcomeSuccess,
			wantText: "Targeting options include...",
		},
		{
			name: "multi-part answer uses joined text",
			resp: llm.Response{
				Content: "Targeting options include age, location and interests.",
				Candidates: []llm.Candidate{{
					FinishReason: llm.FinishReasonStop,
					Parts:        []llm.Part{{Text: "Targeting options include age, "}, {Text: "location and interests."}},
				}},
			},
			wantKind: rag.OutcomeSuccess,
			wantText: "Targeting options include age, location and interests.",
		},
		{
			name: "text only in later candidate",
			resp: llm.Response{Candidates: []llm.Candidate{
				{FinishReason: llm.FinishReasonStop, Parts: []llm.Part{{Text: "  "}}},
				{FinishReason: llm.FinishReasonStop, Parts: []llm.Part{{Text: ""}, {Text: "from candidate two"}}},
			}},
			wantKind: rag.OutcomeSuccess,
			wantText: "from candidate two",
		},
		{
			name:     "prompt blocked",
			resp:     llm.Response{BlockReason: "SAFETY"},
			wantKind: rag.OutcomeRefused,
		},
		{
			name: "top candidate safety wins over text",
			resp: llm.Response{Content: "leaked", Candidates: []llm.Candidate{
				{FinishReason: llm.FinishReasonSafety, Parts: []llm.Part{{Text: "leaked"}}},
			}},
			wantKind: rag.OutcomeRefused,
		},
		{
			name: "max tokens still succeeds",
			resp: llm.Response{Candidates: []llm.Candidate{
				{FinishReason: llm.FinishReasonLength, Parts: []llm.Part{{Text: "partial answer"}}},
			}},
			wantKind: rag.OutcomeSuccess,
			wantText: "partial answer",
		},
		{
			name:     "no candidates",
			resp:     llm.Response{},
			wantKind: rag.OutcomeMalformed,
		},
		{
			name: "candidates without text",
			resp: llm.Response{Candidates: []llm.Candidate{
				{FinishReason: llm.FinishReasonRecitation},
				{FinishReason: llm.FinishReasonOther, Parts: []llm.Part{{Text: ""}}},
			}},
			wantKind: rag.OutcomeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{resp: tt.resp}
			got := rag.NewAnswerGenerator(p).Generate(context.Background(), "prompt")

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, int32(1), p.calls.Load())
		})
	}
}

func TestAnswerGenerator_TransportError(t *testing.T) {
	cause := fmt.Errorf("%w: upstream 503", errors.ErrProviderUnavailable)
	p := &stubProvider{err: cause}

	got := rag.NewAnswerGenerator(p).Generate(context.Background(), "prompt")

	assert.Equal(t, rag.OutcomeTransportError, got.Kind)
	assert.ErrorIs(t, got.Cause, errors.ErrProviderUnavailable)
	assert.True(t, got.NeedsFallback())
	// 不重试
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestAnswerGenerator_RequestOptions(t *testing.T) {
	p := &stubProvider{resp: textResponse("ok")}
	g := rag.NewAnswerGenerator(p, rag.WithRequestOptions(llm.WithRequestMaxTokens(64)))

	got := g.Generate(context.Background(), "the prompt")
	assert.Equal(t, rag.OutcomeSuccess, got.Kind)
	assert.Equal(t, "the prompt", p.prompt())
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "success", rag.OutcomeSuccess.String())
	assert.Equal(t, "refused", rag.OutcomeRefused.String())
	assert.Equal(t, "malformed", rag.OutcomeMalformed.String())
	assert.Equal(t, "transport_error", rag.OutcomeTransportError.String())
}

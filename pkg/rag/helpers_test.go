package rag_test

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/easyops/adqa-go/pkg/core/llm"
)

type stubProvider struct {
	resp  llm.Response
	err   error
	calls atomic.Int32

	lastPrompt atomic.Value
}

func (s *stubProvider) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.calls.Add(1)
	if len(req.Messages) > 0 {
		s.lastPrompt.Store(req.Messages[len(req.Messages)-1].Content)
	}
	return s.resp, s.err
}

func (s *stubProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), s.err
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-1" }
func (s *stubProvider) Close() error  { return nil }

func (s *stubProvider) prompt() string {
	p, _ := s.lastPrompt.Load().(string)
	return p
}

func textResponse(text string) llm.Response {
	return llm.Response{
		Content: text,
		Candidates: []llm.Candidate{{
			FinishReason: llm.FinishReasonStop,
			Parts:        []llm.Part{{Text: text}},
		}},
	}
}

// fakeEmbedder 把文本映射为按关键词计数的向量
type fakeEmbedder struct {
	keywords []string
	err      error
	calls    atomic.Int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, len(f.keywords)+1)
		vec[len(f.keywords)] = 0.01
		for k, kw := range f.keywords {
			if strings.Contains(strings.ToLower(t), strings.ToLower(kw)) {
				vec[k] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

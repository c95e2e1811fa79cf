package llm_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/core/llm"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *llm.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := llm.NewOpenAI(
		llm.WithAPIKey("test-api-key"),
		llm.WithBaseURL(srv.URL+"/v1"),
		llm.WithRetryDelay(0),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewOpenAI_EmptyAPIKey(t *testing.T) {
	_, err := llm.NewOpenAI()
	if err != errors.ErrInvalidAPIKey {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
}

func TestNewOpenAI_Defaults(t *testing.T) {
	client, err := llm.NewOpenAI(llm.WithAPIKey("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "openai" || client.Model() != "gpt-4o-mini" {
		t.Fatalf("unexpected identity: %s/%s", client.Name(), client.Model())
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %v", body["model"])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Use lookalike audiences."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	resp, err := client.Generate(context.Background(), llm.NewRequest("How do I target?"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "Use lookalike audiences." {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.FinishReason() != llm.FinishReasonStop {
		t.Fatalf("unexpected finish reason %q", resp.FinishReason())
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Parts[0].Text != "Use lookalike audiences." {
		t.Fatalf("unexpected candidates %+v", resp.Candidates)
	}
	if resp.TokenUsage.TotalTokens != 15 {
		t.Fatalf("unexpected usage %+v", resp.TokenUsage)
	}
}

func TestOpenAIClient_GenerateContentFilter(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": ""},
				"finish_reason": "content_filter",
			}},
		})
	})

	resp, err := client.Generate(context.Background(), llm.NewRequest("q"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.FinishReason() != llm.FinishReasonSafety {
		t.Fatalf("expected safety finish reason, got %q", resp.FinishReason())
	}
}

func TestOpenAIClient_GenerateRefusal(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "refusal": "I can't help with that."},
				"finish_reason": "stop",
			}},
		})
	})

	resp, err := client.Generate(context.Background(), llm.NewRequest("q"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.FinishReason() != llm.FinishReasonSafety || resp.Content != "" {
		t.Fatalf("expected refusal mapped to safety, got %+v", resp)
	}
}

func TestOpenAIClient_GenerateErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid_api_key", errors.ErrInvalidAPIKey},
		{"rate limited", http.StatusTooManyRequests, "rate_limit_exceeded", errors.ErrRateLimited},
		{"quota", http.StatusTooManyRequests, "insufficient_quota", errors.ErrQuotaExceeded},
		{"not found", http.StatusNotFound, "model_not_found", errors.ErrModelNotFound},
		{"unavailable", http.StatusServiceUnavailable, "", errors.ErrProviderUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, tc.status, map[string]any{
					"error": map[string]any{"message": "boom", "type": "error", "code": tc.code},
				})
			})

			_, err := client.Generate(context.Background(), llm.NewRequest("q"))
			if !stderrors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if calls.Load() != 1 {
				t.Fatalf("generate must not retry, got %d calls", calls.Load())
			}
		})
	}
}

func TestOpenAIClient_EmbedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"message": "busy"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0.3, 0.4}},
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
			},
		})
	}))
	defer srv.Close()

	client, err := llm.NewOpenAI(
		llm.WithAPIKey("k"),
		llm.WithBaseURL(srv.URL+"/v1"),
		llm.WithMaxRetries(2),
		llm.WithRetryDelay(0),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	vecs, err := client.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.3 {
		t.Fatalf("embeddings not reordered by index: %v", vecs)
	}
}

func TestOpenAIClient_EmbedEmpty(t *testing.T) {
	client, _ := llm.NewOpenAI(llm.WithAPIKey("k"))

	vecs, err := client.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("expected nil result for empty input, got %v, %v", vecs, err)
	}
}

func TestOpenAIClient_CanceledContext(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, llm.NewRequest("q"))
	if !stderrors.Is(err, errors.ErrContextCanceled) {
		t.Fatalf("expected ErrContextCanceled, got %v", err)
	}
}

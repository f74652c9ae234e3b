package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astrodocs/missionqa/services/providers"
)

func TestNewOpenAIAdapter(t *testing.T) {
	config := providers.ProviderConfig{
		APIKey: "test-key",
	}

	adapter := NewOpenAIAdapter(config)

	if adapter == nil {
		t.Fatal("NewOpenAIAdapter() returned nil")
	}

	if adapter.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", adapter.Name())
	}

	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}

	if adapter.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", adapter.config.Timeout)
	}
}

func TestOpenAIAdapter_ChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %s, want Bearer test-key", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req OpenAIChatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("model = %s, want gpt-3.5-turbo", req.Model)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 600 {
			t.Errorf("max_tokens = %v, want 600", req.MaxTokens)
		}

		resp := OpenAIChatResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   "gpt-3.5-turbo",
			Choices: []OpenAIChoice{
				{
					Index:        0,
					Message:      OpenAIMessage{Role: "assistant", Content: "Apollo 11 landed in 1969. [DOC_1]"},
					FinishReason: "stop",
				},
			},
			Usage: OpenAIUsage{PromptTokens: 50, CompletionTokens: 12, TotalTokens: 62},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	resp, err := adapter.ChatCompletion(context.Background(), &providers.ChatRequest{
		Model: "gpt-3.5-turbo",
		Messages: []providers.Message{
			{Role: "system", Content: "instructions"},
			{Role: "user", Content: "When did Apollo 11 land?"},
		},
		MaxTokens:   600,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}

	if len(resp.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(resp.Choices))
	}
	if resp.Choices[0].Message.Content != "Apollo 11 landed in 1969. [DOC_1]" {
		t.Errorf("content = %q", resp.Choices[0].Message.Content)
	}
	if resp.Usage.TotalTokens != 62 {
		t.Errorf("total tokens = %d, want 62", resp.Usage.TotalTokens)
	}
	if resp.Provider != "openai" {
		t.Errorf("provider = %s, want openai", resp.Provider)
	}
}

func TestOpenAIAdapter_ChatCompletion_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(OpenAIErrorResponse{
			Error: OpenAIError{Message: "Rate limit reached", Type: "rate_limit_error"},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := adapter.ChatCompletion(context.Background(), &providers.ChatRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}

	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("error type = %T, want *providers.ProviderError", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", provErr.StatusCode)
	}
	if !provErr.Retryable {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIAdapter_ChatCompletion_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(OpenAIChatResponse{
			ID:      "chatcmpl-retry",
			Model:   "gpt-3.5-turbo",
			Choices: []OpenAIChoice{{Message: OpenAIMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	resp, err := adapter.ChatCompletion(context.Background(), &providers.ChatRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if resp.Choices[0].Message.Content != "ok" {
		t.Errorf("content = %q, want ok", resp.Choices[0].Message.Content)
	}
}

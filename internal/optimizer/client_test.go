package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func TestClient_GenerateContent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first candidate text", func(t *testing.T) {
		var gotPath string
		var gotBody generateRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(candidateResponse("hello from the model")))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "gemini-1.5-flash")
		text, err := client.GenerateContent(ctx, "say hello")
		require.NoError(t, err)
		assert.Equal(t, "hello from the model", text)

		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
		require.Len(t, gotBody.Contents, 1)
		assert.Equal(t, "say hello", gotBody.Contents[0].Parts[0].Text)
		require.NotNil(t, gotBody.GenerationConfig)
		assert.Equal(t, 0.7, gotBody.GenerationConfig.Temperature)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt64(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(candidateResponse("recovered")))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "gemini-1.5-flash")
		text, err := client.GenerateContent(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, "recovered", text)
		assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid request"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "gemini-1.5-flash")
		_, err := client.GenerateContent(ctx, "prompt")
		assert.Error(t, err)
		assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	})

	t.Run("empty candidate list is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "gemini-1.5-flash")
		_, err := client.GenerateContent(ctx, "prompt")
		assert.Error(t, err)
	})
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	c, err := NewClient(context.Background(), Options{APIKey: "test-key", BaseURL: baseURL})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/"+DefaultModel+":generateContent")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		genCfg, _ := payload["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", genCfg["responseMimeType"])
		assert.EqualValues(t, 0, genCfg["temperature"])
		assert.EqualValues(t, 512, genCfg["maxOutputTokens"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"work_arrangement":"Remote"}`}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     120,
				"candidatesTokenCount": 18,
			},
		})
	}))
	defer ts.Close()

	resp, err := newTestClient(t, ts.URL).Generate(context.Background(), GenerateRequest{
		Prompt:          "classify this",
		MaxOutputTokens: 512,
		Temperature:     genai.Ptr[float32](0),
		JSON:            true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"work_arrangement":"Remote"}`, resp.Text)
	assert.Equal(t, int64(120), resp.InputTokens)
	assert.Equal(t, int64(18), resp.OutputTokens)
}

func TestGenerate_ResourceExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{
				"code":    429,
				"message": "Resource has been exhausted (e.g. check quota).",
				"status":  "RESOURCE_EXHAUSTED",
			},
		})
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")

	code, status, ok := APIStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", status)
}

func TestFromSDKResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking", Thought: true}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"a":`}, {Text: `1}`}}}},
		},
	}
	out := fromSDKResponse(resp)
	assert.Equal(t, `{"a":1}`, out.Text)
	assert.Zero(t, out.InputTokens)

	assert.Empty(t, fromSDKResponse(nil).Text)
}

func TestAPIStatus_NotAPIError(t *testing.T) {
	_, _, ok := APIStatus(errors.New("dial tcp: connection refused"))
	assert.False(t, ok)
}

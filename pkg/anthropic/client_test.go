package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.EqualValues(t, 1024, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [
				{"type": "text", "text": "{\"tiers\":"},
				{"type": "text", "text": "[]}"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", option.WithBaseURL(srv.URL))

	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "test-model",
		MaxTokens: 1024,
		System:    "Extract pricing tiers.",
		Messages:  []Message{{Role: "user", Content: "page content"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "{\"tiers\":\n[]}", resp.Text())
	assert.EqualValues(t, 20, resp.Usage.InputTokens)
	assert.EqualValues(t, 8, resp.Usage.OutputTokens)
}

func TestCreateMessageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "test-model",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create message")
}

func TestTextNilSafe(t *testing.T) {
	var resp *MessageResponse
	assert.Equal(t, "", resp.Text())
}

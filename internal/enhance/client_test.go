package enhance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwizard-app/promptwizard/internal/config"
)

func upstreamStub(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(apiResponse{
				Choices: []struct {
					Message apiMessage `json:"message"`
				}{{Message: apiMessage{Role: "assistant", Content: content}}},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(baseURL string) *Client {
	return NewClient(config.OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestClient_Enhance(t *testing.T) {
	srv := upstreamStub(t, http.StatusOK, "  An improved prompt.  ")
	c := testClient(srv.URL)

	out, err := c.Enhance(context.Background(), "a rough prompt")
	require.NoError(t, err)
	assert.Equal(t, "An improved prompt.", out)
}

func TestClient_EnhanceUpstreamError(t *testing.T) {
	srv := upstreamStub(t, http.StatusInternalServerError, "")
	c := testClient(srv.URL)

	_, err := c.Enhance(context.Background(), "a rough prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_EnhanceNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{})
	}))
	t.Cleanup(srv.Close)
	c := testClient(srv.URL)

	_, err := c.Enhance(context.Background(), "a rough prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

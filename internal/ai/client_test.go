package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/fincompass/fincompass/testing"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tag": "unusual"}`, `{"tag": "unusual"}`},
		{"fenced json", "```json\n{\"tag\": \"spike\"}\n```", `{"tag": "spike"}`},
		{"fenced no language", "```\n{\"tag\": \"spike\"}\n```", `{"tag": "spike"}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n  ", "{}"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestClientDisabled(t *testing.T) {
	c := NewClient("", "", "", time.Second)
	assert.False(t, c.Enabled())

	_, err := c.Generate(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "steady outlook"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model", time.Second)
	require.True(t, c.Enabled())

	out, err := c.Generate(context.Background(), "be brief", "analyze this")
	require.NoError(t, err)
	assert.Equal(t, "steady outlook", out)
}

func TestClientGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model", time.Second)
	_, err := c.Generate(context.Background(), "system", "prompt")
	assert.Error(t, err)
}

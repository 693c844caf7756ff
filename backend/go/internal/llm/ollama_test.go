package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllama_GenerateContent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"{\"actionables\":[]}"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	temp := float32(0.1)
	client, err := NewOllama("llama3", srv.URL, &temp)
	require.NoError(t, err)

	resp, err := client.GenerateContent(context.Background(), extractionRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"actionables":[]}`, resp.Text())
	assert.Equal(t, "llama3", resp.ModelVersion)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, false, got["stream"])
	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	options, ok := got["options"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 0.1, options["temperature"], 1e-6)
}

func TestOllama_NotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	client, err := NewOllama("nope", srv.URL, nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), extractionRequest())
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestNewOllama_InvalidURL(t *testing.T) {
	_, err := NewOllama("llama3", "://bad", nil)
	assert.Error(t, err)
}

package llm

import (
	"RCA_Insights/backend/go/internal/models"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractionRequest() *models.GenerateContentRequest {
	return &models.GenerateContentRequest{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerSystem, "extract insights"),
			models.NewTextContent(models.SpeakerUser, "the database went down"),
		},
		ResponseFormat: models.ResponseFormatJSONObject,
	}
}

func TestOpenAI_GenerateContent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-2024",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"root_reasons\":[]}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI("gpt-4o", "sk-test", srv.URL+"/v1", nil)
	require.NoError(t, err)

	resp, err := client.GenerateContent(context.Background(), extractionRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"root_reasons":[]}`, resp.Text())
	assert.Equal(t, "chatcmpl-1", resp.ResponseID)
	assert.Equal(t, "gpt-4o-2024", resp.ModelVersion)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])
	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "extract insights", messages[0].(map[string]interface{})["content"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
	assert.Equal(t, "the database went down", messages[1].(map[string]interface{})["content"])
}

func TestOpenAI_ClassifiesErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI("gpt-4o", "sk-test", srv.URL+"/v1", nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), extractionRequest())
	require.Error(t, err)
	assert.True(t, IsPermanent(err), "401 must not be retried")

	status = http.StatusServiceUnavailable
	_, err = client.GenerateContent(context.Background(), extractionRequest())
	require.Error(t, err)
	assert.False(t, IsPermanent(err), "503 is transient")
}

func TestOpenAI_SendsTemperature(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "c", "object": "chat.completion", "model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{}"}, "finish_reason": "stop"}]}`))
	}))
	defer srv.Close()

	temp := float32(0.25)
	client, err := NewOpenAI("gpt-4o", "sk-test", srv.URL+"/v1", &temp)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), extractionRequest())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got["temperature"], 1e-6)
}

package llm

import (
	"RCA_Insights/backend/go/internal/models"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestGemini_ConfigureModel(t *testing.T) {
	temp := float32(0.2)
	g := &Gemini{model: "gemini-1.5-flash", temperature: &temp}
	model := &genai.GenerativeModel{}

	parts := g.configureModel(model, extractionRequest())

	require.NotNil(t, model.SystemInstruction)
	assert.Equal(t, []genai.Part{genai.Text("extract insights")}, model.SystemInstruction.Parts)
	assert.Equal(t, "application/json", model.ResponseMIMEType)
	require.NotNil(t, model.Temperature)
	assert.Equal(t, temp, *model.Temperature)
	assert.Equal(t, []genai.Part{genai.Text("the database went down")}, parts)
}

func TestGemini_ConfigureModelPlainText(t *testing.T) {
	g := &Gemini{}
	model := &genai.GenerativeModel{}
	req := &models.GenerateContentRequest{
		Content: []models.Content{models.NewTextContent(models.SpeakerUser, "hi")},
	}

	parts := g.configureModel(model, req)
	assert.Nil(t, model.SystemInstruction)
	assert.Empty(t, model.ResponseMIMEType)
	assert.Nil(t, model.Temperature)
	assert.Len(t, parts, 1)
}

func TestFromGenaiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"root_reasons":`), genai.Text(`[]}`), genai.Blob{MIMEType: "image/png"}}}},
			{Content: nil},
		},
	}

	out := fromGenaiResponse(resp, "gemini-1.5-flash")
	assert.Equal(t, "gemini-1.5-flash", out.ModelVersion)
	require.Len(t, out.Content, 1)
	assert.Equal(t, `{"root_reasons":[]}`, out.Text())

	assert.Equal(t, "", fromGenaiResponse(nil, "m").Text())
}

func TestClassifyGeminiError(t *testing.T) {
	badKey := fmt.Errorf("gemini request failed: %w", &googleapi.Error{Code: http.StatusBadRequest})
	assert.True(t, IsPermanent(classifyGeminiError(badKey)))

	overloaded := fmt.Errorf("gemini request failed: %w", &googleapi.Error{Code: http.StatusServiceUnavailable})
	assert.False(t, IsPermanent(classifyGeminiError(overloaded)))

	assert.False(t, IsPermanent(classifyGeminiError(errors.New("connection reset"))))
}

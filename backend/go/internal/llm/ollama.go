package llm

import (
	"RCA_Insights/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于 Ollama Chat API 的 LLM 客户端。
type Ollama struct {
	client      *olla.Client // Ollama 客户端实例。
	model       string       // 默认模型名称。
	temperature *float32     // 可选采样温度。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//	temperature: 可选采样温度。
//
// 返回值:
//
//	*Ollama: 新创建的 Ollama 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllama(model, baseURL string, temperature *float32) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 单次请求的超时由调用方通过 context 控制。
	client := olla.NewClient(parsedURL, &http.Client{})

	return &Ollama{client: client, model: model, temperature: temperature}, nil
}

// GenerateContent 使用 Ollama 的 /api/chat 接口以非流式方式生成内容。
func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	var result olla.ChatResponse
	err := o.client.Chat(ctx, o.toOllamaRequest(req), func(resp olla.ChatResponse) error {
		result = resp
		return nil
	})
	if err != nil {
		return nil, classifyOllamaError(fmt.Errorf("failed to generate content with ollama: %w", err))
	}

	return &models.GenerateContentResponse{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerModel, result.Message.Content),
		},
		CreateTime:   result.CreatedAt,
		ModelVersion: result.Model,
	}, nil
}

// toOllamaRequest 将内部请求转换为 Ollama ChatRequest。
func (o *Ollama) toOllamaRequest(req *models.GenerateContentRequest) *olla.ChatRequest {
	messages := make([]olla.Message, 0, len(req.Content))
	for _, content := range req.Content {
		role := "user"
		switch content.Role {
		case models.SpeakerSystem:
			role = "system"
		case models.SpeakerModel:
			role = "assistant"
		}
		messages = append(messages, olla.Message{Role: role, Content: content.Text()})
	}

	model := req.Model
	if model == "" {
		model = o.model
	}
	stream := false
	out := &olla.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
	}
	if req.ResponseFormat == models.ResponseFormatJSONObject {
		out.Format = json.RawMessage(`"json"`)
	}
	if o.temperature != nil {
		out.Options = map[string]interface{}{"temperature": *o.temperature}
	}
	return out
}

func classifyOllamaError(err error) error {
	var statusErr olla.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, err)
	}
	return err
}

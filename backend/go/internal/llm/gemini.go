package llm

import (
	"RCA_Insights/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	client      *genai.Client
	model       string
	temperature *float32
}

// NewGemini 创建一个新的 Gemini 客户端。endpoint 为空时使用默认服务地址。
func NewGemini(ctx context.Context, model, apiKey, endpoint string, temperature *float32) (*Gemini, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, temperature: temperature}, nil
}

// GenerateContent 向 Gemini API 发送单轮请求。
// 每次调用都基于新的 GenerativeModel，以便系统指令和回复格式互不干扰。
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	name := req.Model
	if name == "" {
		name = g.model
	}
	model := g.client.GenerativeModel(name)
	parts := g.configureModel(model, req)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classifyGeminiError(fmt.Errorf("gemini request failed: %w", err))
	}
	return fromGenaiResponse(resp, name), nil
}

// configureModel 将系统指令、回复格式与温度写入 model，返回需要发送的对话部分。
func (g *Gemini) configureModel(model *genai.GenerativeModel, req *models.GenerateContentRequest) []genai.Part {
	system, turns := splitSystem(req)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if req.ResponseFormat == models.ResponseFormatJSONObject {
		model.ResponseMIMEType = "application/json"
	}
	if g.temperature != nil {
		model.SetTemperature(*g.temperature)
	}
	return toGenaiParts(turns)
}

// Close 释放底层连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// toGenaiParts 将内部 Content 结构体转换为 GenAI Part 切片。
func toGenaiParts(content []models.Content) []genai.Part {
	var parts []genai.Part
	for _, c := range content {
		for _, p := range c.Parts {
			if p != nil && p.Text != "" {
				parts = append(parts, genai.Text(p.Text))
			}
		}
	}
	return parts
}

// fromGenaiResponse 将 GenAI 响应转换为内部 GenerateContentResponse，只保留文本部分。
func fromGenaiResponse(resp *genai.GenerateContentResponse, model string) *models.GenerateContentResponse {
	out := &models.GenerateContentResponse{ModelVersion: model}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		out.Content = append(out.Content, models.NewTextContent(models.SpeakerModel, sb.String()))
	}
	return out
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return err
}

package models

import "time"

// SpeakerRole 定义了消息发送者的角色。
type SpeakerRole string

const (
	SpeakerSystem SpeakerRole = "system" // 系统指令。
	SpeakerUser   SpeakerRole = "user"   // 用户角色。
	SpeakerModel  SpeakerRole = "model"  // 模型角色。
)

// ResponseFormat 描述期望模型返回的内容格式。
type ResponseFormat string

const (
	ResponseFormatText       ResponseFormat = ""            // 自由文本。
	ResponseFormatJSONObject ResponseFormat = "json_object" // 单个 JSON 对象。
)

// Content 包含了构成单个消息的多个部分。
type Content struct {
	// 构成单个消息的部分列表。
	Parts []*Part `json:"parts,omitempty"`
	// 内容的生产者。
	Role SpeakerRole `json:"role,omitempty"`
}

// Part 定义了消息的单个文本部分。
type Part struct {
	Text string `json:"text,omitempty"`
}

// Text 拼接所有部分的文本。
func (c Content) Text() string {
	var s string
	for _, p := range c.Parts {
		if p != nil {
			s += p.Text
		}
	}
	return s
}

// NewTextContent 创建只包含一个文本部分的 Content。
func NewTextContent(role SpeakerRole, text string) Content {
	return Content{Role: role, Parts: []*Part{{Text: text}}}
}

// GenerateContentRequest 定义了生成内容的请求结构。
type GenerateContentRequest struct {
	Content        []Content      `json:"content,omitempty"`        // 按顺序排列的消息，系统指令在前。
	Model          string         `json:"model,omitempty"`          // 为空时使用客户端默认模型。
	ResponseFormat ResponseFormat `json:"responseFormat,omitempty"` // 期望的回复格式。
}

// GenerateContentResponse 定义了生成内容的响应结构。
type GenerateContentResponse struct {
	Content      []Content `json:"content,omitempty"`      // 响应的内容列表。
	CreateTime   time.Time `json:"createTime,omitempty"`   // 响应创建时间。
	ResponseID   string    `json:"responseId,omitempty"`   // 响应ID。
	ModelVersion string    `json:"modelVersion,omitempty"` // 模型版本。
}

// Text 返回第一个候选内容的文本，没有候选时返回空字符串。
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text()
}

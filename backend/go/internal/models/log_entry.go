package models

// ErrorInfo 存储了关于错误的结构化信息，作为日志条目中的 "error" 字段。
type ErrorInfo struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // 最内层错误的 Go 类型，例如 "*fs.PathError"
}

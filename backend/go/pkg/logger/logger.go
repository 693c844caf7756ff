package logger

import (
	"RCA_Insights/backend/go/internal/models"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger 是对 logrus 的封装，以提供更方便的结构化日志记录功能。
// 所有 With* 方法都返回新的 Logger，不会修改调用者。
type Logger struct {
	entry *logrus.Entry
}

// Init 初始化全局的 logrus 配置。
// level: 日志级别；format: "json" 或 "text"；out 为 nil 时输出到标准输出。
func Init(level logrus.Level, format string, out io.Writer) {
	configure(logrus.StandardLogger(), level, format, out)
}

func configure(l *logrus.Logger, level logrus.Level, format string, out io.Writer) {
	switch format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		// JSON 格式便于后续的日志采集和分析。
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)
	l.SetLevel(level)
}

// ParseLevel 解析日志级别字符串，无法识别时回退到 info。
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New 基于全局 logger 创建一个新的 Logger 实例，并预设服务名与 trace id。
func New(serviceName, traceID string) *Logger {
	return NewWithBase(logrus.StandardLogger(), serviceName, traceID)
}

// NewWithBase 基于指定的 logrus.Logger 创建 Logger，测试中可传入 hooks/test 的 logger。
func NewWithBase(base *logrus.Logger, serviceName, traceID string) *Logger {
	return &Logger{
		entry: base.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
		}),
	}
}

// Discard 返回一个丢弃所有输出的 Logger。
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewWithBase(l, "discard", "")
}

// WithField 添加单个字段。
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields 添加多个字段。
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError 将错误信息以 models.ErrorInfo 的形式添加到日志条目中。
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	info := models.ErrorInfo{Message: err.Error(), Type: errorType(err)}
	return &Logger{entry: l.entry.WithField("error", info)}
}

// WithPayload 将自定义的业务数据添加到日志条目中。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info 记录一条信息级别的日志。
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn 记录一条警告级别的日志。
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error 记录一条错误级别的日志。
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug 记录一条调试级别的日志。
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal 记录一条致命错误级别的日志，并终止程序。
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}

// errorType 取错误链最内层错误的类型描述。
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}

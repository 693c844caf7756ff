package kafka

import (
	"RCA_Insights/backend/go/internal/config"
	"RCA_Insights/backend/go/internal/insight"
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// InsightMessage 是发送到 Kafka 的单个文档分析结果。
type InsightMessage struct {
	TraceID     string            `json:"trace_id"`
	DocumentID  string            `json:"rca_file"`
	RootReasons []insight.Insight `json:"root_reasons"`
	Actionables []insight.Insight `json:"actionables"`
	ProcessedAt time.Time         `json:"processed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 封装了向 Kafka 发送分析结果的逻辑。
type Publisher struct {
	writer messageWriter
	log    *logger.Logger
	now    func() time.Time
}

// NewPublisher 确保主题存在，然后创建一个新的 Publisher 实例。
func NewPublisher(cfg *config.KafkaConfig, log *logger.Logger) (*Publisher, error) {
	if err := EnsureTopic(cfg); err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同一文档的结果落在同一分区
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return newPublisher(writer, log), nil
}

func newPublisher(w messageWriter, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{writer: w, log: log, now: time.Now}
}

// PublishInsights 将文档的分析结果序列化为 JSON 并以文档名为 key 发送到 Kafka。
func (p *Publisher) PublishInsights(ctx context.Context, traceID, documentID string, set *insight.Set) error {
	if set == nil {
		set = insight.NewSet()
	}
	msg := InsightMessage{
		TraceID:     traceID,
		DocumentID:  documentID,
		RootReasons: nonNil(set.RootReasons),
		Actionables: nonNil(set.Actionables),
		ProcessedAt: p.now().UTC(),
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal insight message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(documentID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	p.log.WithField("document_id", documentID).Debug("insights published")
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func nonNil(items []insight.Insight) []insight.Insight {
	if items == nil {
		return []insight.Insight{}
	}
	return items
}

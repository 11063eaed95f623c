package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// Producer handles publishing market events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishExDividend publishes an ex-dividend reminder for a security
func (p *Producer) PublishExDividend(ctx context.Context, d *models.Dividend, day string) error {
	event := models.MarketEvent{
		EventType:     models.EventExDividend,
		SecurityCode:  d.SecurityCode,
		Date:          day,
		CashDividend:  d.CashDividend,
		StockDividend: d.StockDividend,
		Timestamp:     time.Now(),
	}
	return p.publish(ctx, d.SecurityCode, event)
}

// PublishDividendPayable publishes a dividend payable-date reminder
func (p *Producer) PublishDividendPayable(ctx context.Context, d *models.Dividend, day string) error {
	event := models.MarketEvent{
		EventType:     models.EventPayableDate,
		SecurityCode:  d.SecurityCode,
		Date:          day,
		CashDividend:  d.CashDividend,
		StockDividend: d.StockDividend,
		Timestamp:     time.Now(),
	}
	return p.publish(ctx, d.SecurityCode, event)
}

// PublishPublicOffering publishes a newly listed security announcement
func (p *Producer) PublishPublicOffering(ctx context.Context, s *models.Security, day string) error {
	event := models.MarketEvent{
		EventType:    models.EventPublicOffering,
		SecurityCode: s.Code,
		Date:         day,
		Timestamp:    time.Now(),
	}
	return p.publish(ctx, s.Code, event)
}

// PublishSnapshotDelta publishes a member's day-over-day market value change
func (p *Producer) PublishSnapshotDelta(ctx context.Context, memberID int64, date time.Time, marketValue, delta decimal.Decimal) error {
	event := models.MarketEvent{
		EventType:   models.EventSnapshotDelta,
		MemberID:    memberID,
		Date:        date.Format("2006-01-02"),
		MarketValue: marketValue,
		Delta:       delta,
		Timestamp:   time.Now(),
	}
	return p.publish(ctx, fmt.Sprintf("member-%d", memberID), event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.MarketEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// SecurityRepository defines the database operations the consumer needs
type SecurityRepository interface {
	ApplySecurityCorrection(c *models.SecurityCorrection) error
}

// CorrectionEvent is the inbound envelope for security metadata corrections
type CorrectionEvent struct {
	EventType string                     `json:"event_type"`
	Data      *models.SecurityCorrection `json:"data"`
	Timestamp time.Time                  `json:"timestamp"`
}

// EventSecurityCorrection is the only inbound event type this consumer acts on
const EventSecurityCorrection = "SECURITY_CORRECTION"

// Consumer applies security metadata corrections published by operators.
// Corrections go through the same overwrite merge rule as feed data, so
// replaying the topic is safe.
type Consumer struct {
	reader *kafka.Reader
	repo   SecurityRepository
	log    *logrus.Logger
}

// NewConsumer creates a new Kafka consumer for correction events
func NewConsumer(brokers []string, topic, groupID string, repo SecurityRepository, log *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
		log:    log,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.log.WithField("topic", c.reader.Config().Topic).Info("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.WithError(err).Error("error reading message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.log.WithError(err).Error("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	var event CorrectionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal correction event: %w", err)
	}

	if event.EventType != EventSecurityCorrection {
		c.log.WithField("event_type", event.EventType).Debug("ignoring event")
		return nil
	}
	if event.Data == nil || event.Data.Code == "" {
		return fmt.Errorf("correction event missing security code")
	}

	if err := c.repo.ApplySecurityCorrection(event.Data); err != nil {
		return fmt.Errorf("failed to apply correction for %s: %w", event.Data.Code, err)
	}

	c.log.WithFields(logrus.Fields{
		"security_code": event.Data.Code,
		"offset":        msg.Offset,
	}).Info("applied security correction")
	return nil
}

package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

// Producer streams registration confirmations to Kafka for the
// downstream notification consumers (email, push).
type Producer struct {
	Writer *kafka.Writer
	Log    *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer, Log: log}
}

// PublishRegistrationConfirmed streams the confirmation keyed by ticket
// so retries for one registration land on one partition.
func (p *Producer) PublishRegistrationConfirmed(n models.RegistrationNotification) error {
	msgBytes, err := json.Marshal(n)
	if err != nil {
		return err
	}

	p.Log.LogKafka("PUBLISH", "registration_confirmed", "ticket "+n.TicketID)

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(n.TicketID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

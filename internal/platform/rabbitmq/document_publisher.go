package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"papermind/internal/model"
)

type DocumentPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewDocumentPublisher(conn *amqp.Connection, queueName string) *DocumentPublisher {
	return &DocumentPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *DocumentPublisher) Publish(ctx context.Context, job model.DocumentPersistJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal persist job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.DocumentID,
		},
	); err != nil {
		return fmt.Errorf("publish persist job failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable persist queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}

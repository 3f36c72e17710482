package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"papermind/internal/model"
	"papermind/internal/platform/rabbitmq"
)

var errMalformedJob = errors.New("malformed persist job")

// DocumentStore is the write side the worker persists into.
type DocumentStore interface {
	ExistsByDocumentID(documentID string) (bool, error)
	CreateWithPassages(doc *model.Document, passages []model.Passage) error
}

// DocumentPersistWorker consumes persist jobs and writes documents and their
// passages to MySQL. Redelivered jobs for documents already stored are acked
// without writing again.
type DocumentPersistWorker struct {
	conn      *amqp.Connection
	store     DocumentStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDocumentPersistWorker(conn *amqp.Connection, store DocumentStore, queueName string) *DocumentPersistWorker {
	return &DocumentPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *DocumentPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(4, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					log.Error().Err(err).Str("message_id", d.MessageId).Msg("persist document failed")
					// malformed payloads never succeed, everything else gets one more try
					_ = d.Nack(false, !errors.Is(err, errMalformedJob) && !d.Redelivered)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	log.Info().Str("queue", w.queueName).Msg("document persist worker started")
	return nil
}

func (w *DocumentPersistWorker) handle(body []byte) error {
	var job model.DocumentPersistJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", errMalformedJob, err)
	}
	if job.DocumentID == "" {
		return fmt.Errorf("%w: missing document id", errMalformedJob)
	}

	exists, err := w.store.ExistsByDocumentID(job.DocumentID)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Str("document_id", job.DocumentID).Msg("document already persisted, skipping")
		return nil
	}

	doc, passages := job.Records()
	if err := w.store.CreateWithPassages(doc, passages); err != nil {
		return err
	}
	log.Info().Str("document_id", job.DocumentID).Int("passages", len(passages)).Msg("document persisted")
	return nil
}

func (w *DocumentPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OutreachHandler sends one queued email.
type OutreachHandler interface {
	HandleOutreach(ctx context.Context, payload OutreachPayload) error
}

type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Handler OutreachHandler
	Logger  *slog.Logger
}

func NewWorker(ch Consumer, handler OutreachHandler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{Channel: ch, Handler: handler, Logger: logger}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Logger.Info("outreach worker waiting for messages", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("outreach worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.process(ctx, d)
		}
	}
}

// process acks on success. Anything else is rejected without requeue so it lands in the DLQ.
func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	var payload OutreachPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.Logger.Error("malformed outreach message", "error", err)
		if nerr := d.Nack(false, false); nerr != nil {
			w.Logger.Error("nack failed", "error", nerr)
		}
		return
	}

	log := w.Logger.With("lead_id", payload.LeadID)
	if err := w.Handler.HandleOutreach(ctx, payload); err != nil {
		log.Error("outreach failed", "error", err)
		if nerr := d.Nack(false, false); nerr != nil {
			log.Error("nack failed", "error", nerr)
		}
		return
	}

	log.Info("outreach email sent")
	if err := d.Ack(false); err != nil {
		log.Error("ack failed", "error", err)
	}
}

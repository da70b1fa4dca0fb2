package worker

import (
	"Go_Share/config"
	"Go_Share/internal/mq"
	"Go_Share/internal/task"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	TaskID     uint64    `json:"task_id"`
	Identifier string    `json:"identifier"`
	Attempt    int       `json:"attempt"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

// Acker is the part of an AMQP delivery the handler settles.
type Acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Publisher is the part of the MQ client used for retries and dead letters.
type Publisher interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

// RunFinalizeWorker consumes finalize tasks from RabbitMQ until ctx is done.
func RunFinalizeWorker(ctx context.Context, processor *task.Processor) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueTasks,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	burst := config.AppConfig.Finalize.Burst
	if burst <= 0 {
		burst = 1
	}
	var limiter *rate.Limiter
	if limit := config.AppConfig.Finalize.Rate; limit <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}

	h := &Handler{Processor: processor, Publisher: client, Limiter: limiter}
	return consume(ctx, deliveries, h, config.AppConfig.Finalize.Concurrency)
}

// consume hands deliveries to at most concurrency handlers. Waiting for a free
// slot is abandoned when ctx is done and the delivery goes back to the queue.
func consume(ctx context.Context, deliveries <-chan amqp.Delivery, h *Handler, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("finalize worker: delivery channel closed")
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = delivery.Nack(false, true)
				return nil
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				h.Handle(ctx, d, d.Body)
			}(delivery)
		}
	}
}

// Handler settles one finalize delivery.
type Handler struct {
	Processor interface {
		Process(ctx context.Context, msg task.FinalizeMessage) error
		Settle(ctx context.Context, msg task.FinalizeMessage, procErr error) (task.FinalizeMessage, time.Duration, bool, error)
	}
	Publisher Publisher
	Limiter   *rate.Limiter
}

func (h *Handler) Handle(ctx context.Context, delivery Acker, body []byte) {
	var msg task.FinalizeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("finalize worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}

	if h.Limiter != nil {
		if err := h.Limiter.Wait(ctx); err != nil {
			_ = delivery.Nack(false, true)
			return
		}
	}

	procErr := h.Processor.Process(ctx, msg)
	if procErr == nil {
		_ = delivery.Ack(false)
		return
	}
	if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
		_ = delivery.Nack(false, true)
		return
	}

	next, delay, retry, err := h.Processor.Settle(ctx, msg, procErr)
	if err != nil {
		log.Printf("finalize worker: settle task %d failed: %v", msg.TaskID, err)
		_ = delivery.Nack(false, true)
		return
	}
	if retry {
		if err := h.publishRetry(ctx, next, delay); err != nil {
			log.Printf("finalize worker: retry schedule failed: %v", err)
			_ = delivery.Nack(false, true)
			return
		}
	} else {
		h.publishDLQ(ctx, msg, procErr)
	}
	_ = delivery.Ack(false)
}

func (h *Handler) publishRetry(ctx context.Context, next task.FinalizeMessage, delay time.Duration) error {
	body, err := json.Marshal(next)
	if err != nil {
		return err
	}
	return h.Publisher.PublishRetry(ctx, body, delay)
}

func (h *Handler) publishDLQ(ctx context.Context, msg task.FinalizeMessage, procErr error) {
	dlq := dlqMessage{
		TaskID:     msg.TaskID,
		Identifier: msg.Identifier,
		Attempt:    msg.Attempt,
		Error:      procErr.Error(),
		FailedAt:   time.Now(),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return
	}
	if err := h.Publisher.PublishDLQ(ctx, body); err != nil {
		log.Printf("finalize worker: dlq publish failed: %v", err)
	}
}

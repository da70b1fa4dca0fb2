package task

import (
	"Go_Share/internal/mq"
	"context"
	"encoding/json"
)

// MQDispatcher publishes finalize messages to RabbitMQ for cmd/worker.
type MQDispatcher struct{}

func (MQDispatcher) Dispatch(ctx context.Context, msg FinalizeMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	publisher, err := mq.GetPublisher()
	if err != nil {
		return err
	}
	return publisher.PublishTask(ctx, body)
}

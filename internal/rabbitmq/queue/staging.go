package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/notification-api/internal/config"
)

const (
	DefaultExchange   = "notifications-exchange"
	DefaultQueue      = "notifications-staged"
	DefaultDLQ        = "notifications-staged-dlq"
	DefaultRoutingKey = "staged"
)

// StagedMessage tells downstream consumers that a notification was stored and
// queued for delivery.
type StagedMessage struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"requestId"`
	Type         string    `json:"notificationType"`
	Channel      string    `json:"channel"`
	ScheduleDate time.Time `json:"scheduleDate"`
	Score        float64   `json:"score"`
	Queue        string    `json:"queue"`
}

type publishFunc func(body []byte, routingKey string, strategy retry.Strategy) error

// StagingQueue publishes StagedMessage events to a direct exchange.
type StagingQueue struct {
	publish    publishFunc
	routingKey string
}

// NewStagingQueue declares the exchange, the staging queue and its dead-letter
// queue on ch, and binds them.
func NewStagingQueue(ch *rabbitmq.Channel, cfg config.RabbitMQ) (*StagingQueue, error) {
	exchangeName := orDefault(cfg.Exchange, DefaultExchange)
	queueName := orDefault(cfg.Queue, DefaultQueue)
	dlqName := orDefault(cfg.DLQ, DefaultDLQ)
	routingKey := orDefault(cfg.RoutingKey, DefaultRoutingKey)

	exchange := rabbitmq.NewExchange(exchangeName, "direct")
	if err := exchange.BindToChannel(ch); err != nil {
		return nil, fmt.Errorf("failed to bind to exchange: %w", err)
	}

	qm := rabbitmq.NewQueueManager(ch)

	_, err := qm.DeclareQueue(dlqName, rabbitmq.QueueConfig{Durable: true})
	if err != nil {
		return nil, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	mainArgs := map[string]interface{}{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}

	mainQ, err := qm.DeclareQueue(queueName, rabbitmq.QueueConfig{
		Durable: true,
		Args:    mainArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare staging queue: %w", err)
	}

	if err := ch.QueueBind(mainQ.Name, routingKey, exchange.Name(), false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind the exchange to the staging queue: %w", err)
	}

	pub := rabbitmq.NewPublisher(ch, exchange.Name())

	return newStagingQueue(func(body []byte, key string, strategy retry.Strategy) error {
		return pub.PublishWithRetry(body, key, "application/json", strategy)
	}, routingKey), nil
}

func newStagingQueue(publish publishFunc, routingKey string) *StagingQueue {
	return &StagingQueue{publish: publish, routingKey: routingKey}
}

func (q *StagingQueue) Publish(msg StagedMessage, strategy retry.Strategy) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := q.publish(body, q.routingKey, strategy); err != nil {
		return fmt.Errorf("failed to publish staged message %s: %w", msg.ID, err)
	}

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

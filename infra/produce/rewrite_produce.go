package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RewriteQueue      = "media.rewrite"
	RewriteExchange   = "media.exchange"
	RewriteRoutingKey = "media.rewrite"
)

// RewriteJobMessage asks the worker to run one reference-rewrite pass.
type RewriteJobMessage struct {
	RunID       string `json:"run_id"`
	Scope       string `json:"scope"`       // logical bucket name, or "all"
	VerifyOnly  bool   `json:"verify_only"` // re-verify migrated records without uploading
	RequestedBy string `json:"requested_by"`
	Timestamp   int64  `json:"timestamp"`
}

// RewriteService publishes rewrite jobs for the consumer process.
type RewriteService struct {
	channel *amqp.Channel
}

func InitRewriteService(channel *amqp.Channel) *RewriteService {
	service := &RewriteService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		RewriteExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Rewrite exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		RewriteQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Rewrite queue: " + err.Error())
	}

	err = channel.QueueBind(
		RewriteQueue,
		RewriteRoutingKey,
		RewriteExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Rewrite queue: " + err.Error())
	}

	return service
}

func (s *RewriteService) PublishRewriteJob(ctx context.Context, msg RewriteJobMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(ctx,
		RewriteExchange,
		RewriteRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

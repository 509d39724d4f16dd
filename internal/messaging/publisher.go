package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ interfaces.GuardianEventPublisher = (*RabbitMQGuardianEventPublisher)(nil)

// RabbitMQGuardianEventPublisher публикует события о жетонах в fanout exchange.
type RabbitMQGuardianEventPublisher struct {
	ch           *amqp091.Channel
	mu           sync.Mutex
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitMQGuardianEventPublisher открывает канал и объявляет exchange.
func NewRabbitMQGuardianEventPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQGuardianEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for guardian events", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := declareGuardianExchange(ch); err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare guardian events exchange", zap.String("exchange", GuardianEventsExchange), zap.Error(err))
		return nil, err
	}
	logger.Info("Guardian events exchange declared successfully", zap.String("exchange", GuardianEventsExchange))

	return &RabbitMQGuardianEventPublisher{
		ch:           ch,
		logger:       logger.Named("GuardianEventPublisher"),
		exchangeName: GuardianEventsExchange,
	}, nil
}

func declareGuardianExchange(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		GuardianEventsExchange,
		guardianEventsExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", GuardianEventsExchange, err)
	}
	return nil
}

// PublishTokenCompleted публикует событие о завершении жетона.
func (p *RabbitMQGuardianEventPublisher) PublishTokenCompleted(ctx context.Context, event models.GuardianTokenCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal guardian token completed event: %w", err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx,
		p.exchangeName,
		"",    // routing key (не используется для fanout)
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.EventID,
			Type:         EventTypeTokenCompleted,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		p.logger.Error("Failed to publish guardian token completed event", zap.Error(err), zap.String("tokenID", event.TokenID.String()))
		return fmt.Errorf("failed to publish guardian token completed event: %w", err)
	}

	p.logger.Debug("Guardian token completed event published",
		zap.String("eventID", event.EventID),
		zap.String("tokenID", event.TokenID.String()),
		zap.String("playerID", event.PlayerID.String()))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQGuardianEventPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

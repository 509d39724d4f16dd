package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TokenCompletedHandler обрабатывает событие завершения жетона.
type TokenCompletedHandler interface {
	HandleTokenCompleted(ctx context.Context, event models.GuardianTokenCompletedEvent) error
}

// handleTimeout ограничивает обработку одного сообщения.
const handleTimeout = 10 * time.Second

// GuardianEventConsumer слушает guardian_events через временную эксклюзивную очередь.
// У каждого экземпляра сервера своя очередь: каждый сбрасывает свой кеш и шлет своим клиентам.
type GuardianEventConsumer struct {
	conn        *amqp091.Connection
	ch          *amqp091.Channel
	handler     TokenCompletedHandler
	logger      *zap.Logger
	queueName   string
	consumerTag string
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func NewGuardianEventConsumer(conn *amqp091.Connection, handler TokenCompletedHandler, logger *zap.Logger) (*GuardianEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("TokenCompletedHandler is nil")
	}

	consumerTag := fmt.Sprintf("guardian_events_consumer_%d", time.Now().UnixNano())
	c := &GuardianEventConsumer{
		conn:        conn,
		handler:     handler,
		logger:      logger.Named("GuardianEventConsumer").With(zap.String("consumerTag", consumerTag)),
		consumerTag: consumerTag,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
	if err := c.setupChannelAndQueue(); err != nil {
		return nil, err
	}
	c.logger.Info("GuardianEventConsumer initialized", zap.String("exchange", GuardianEventsExchange), zap.String("queue", c.queueName))
	return c, nil
}

// setupChannelAndQueue создает канал, объявляет exchange, очередь и биндинг.
func (c *GuardianEventConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareGuardianExchange(c.ch); err != nil {
		_ = c.ch.Close()
		return err
	}

	// Брокер сам даст имя очереди
	q, err := c.ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name

	if err := c.ch.QueueBind(c.queueName, "", GuardianEventsExchange, false, nil); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, GuardianEventsExchange, err)
	}

	// Обрабатываем по одному сообщению за раз
	if err := c.ch.Qos(1, 0, false); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// StartConsuming блокирует до Stop или закрытия канала доставки.
func (c *GuardianEventConsumer) StartConsuming() error {
	defer close(c.doneChan)

	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}
	c.logger.Info("Waiting for guardian events...")

	for {
		select {
		case <-c.stopChan:
			c.logger.Info("Stop signal received, exiting consume loop")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Deliveries channel closed")
				return nil
			}
			c.handleDelivery(d)
		}
	}
}

func (c *GuardianEventConsumer) handleDelivery(d amqp091.Delivery) {
	log := c.logger.With(zap.Uint64("deliveryTag", d.DeliveryTag), zap.String("messageID", d.MessageId))

	if d.Type != "" && d.Type != EventTypeTokenCompleted {
		log.Debug("Skipping unknown event type", zap.String("type", d.Type))
		_ = d.Ack(false)
		return
	}

	var event models.GuardianTokenCompletedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.TokenID == uuid.Nil {
		log.Error("Malformed guardian event, dropping", zap.Error(err), zap.ByteString("body", d.Body))
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if err := c.handler.HandleTokenCompleted(ctx, event); err != nil {
		// Повторная доставка не поможет побочным эффектам, которые уже случились
		log.Error("Failed to handle guardian token completed event", zap.Error(err), zap.String("tokenID", event.TokenID.String()))
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("Failed to acknowledge message", zap.Error(err))
	}
}

// Stop останавливает цикл чтения и закрывает канал.
func (c *GuardianEventConsumer) Stop() error {
	c.logger.Info("Stopping GuardianEventConsumer...")
	select {
	case <-c.stopChan:
		return nil
	default:
		close(c.stopChan)
	}
	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer", zap.Error(err))
	}
	select {
	case <-c.doneChan:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Timed out waiting for consume loop to finish")
	}
	return c.ch.Close()
}

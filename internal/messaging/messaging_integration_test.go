package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"guardian-server/internal/messaging"
	"guardian-server/internal/models"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []models.GuardianTokenCompletedEvent
	err    error
	got    chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{got: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandleTokenCompleted(_ context.Context, event models.GuardianTokenCompletedEvent) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	err := h.err
	h.mu.Unlock()
	h.got <- struct{}{}
	return err
}

func (h *recordingHandler) received() []models.GuardianTokenCompletedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.GuardianTokenCompletedEvent, len(h.events))
	copy(out, h.events)
	return out
}

type MessagingIntegrationSuite struct {
	suite.Suite
	ctx          context.Context
	rmqContainer *rabbitmq.RabbitMQContainer
	conn         *amqp091.Connection
}

func (s *MessagingIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.rmqContainer, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")

	amqpURL, err := s.rmqContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
	s.conn, err = amqp091.Dial(amqpURL)
	require.NoError(s.T(), err)
}

func (s *MessagingIntegrationSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.rmqContainer != nil {
		_ = s.rmqContainer.Terminate(s.ctx)
	}
}

func TestMessagingIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(MessagingIntegrationSuite))
}

func (s *MessagingIntegrationSuite) startConsumer(h messaging.TokenCompletedHandler) *messaging.GuardianEventConsumer {
	consumer, err := messaging.NewGuardianEventConsumer(s.conn, h, zap.NewNop())
	s.Require().NoError(err)
	go func() { _ = consumer.StartConsuming() }()
	s.T().Cleanup(func() { _ = consumer.Stop() })
	return consumer
}

func (s *MessagingIntegrationSuite) waitFor(h *recordingHandler, n int) {
	deadline := time.After(15 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-h.got:
		case <-deadline:
			s.FailNow("timed out waiting for guardian events", "got %d of %d", i, n)
		}
	}
}

func (s *MessagingIntegrationSuite) TestPublishedEventReachesEveryInstance() {
	first := newRecordingHandler()
	second := newRecordingHandler()
	s.startConsumer(first)
	s.startConsumer(second)

	publisher, err := messaging.NewRabbitMQGuardianEventPublisher(s.conn, zap.NewNop())
	s.Require().NoError(err)
	defer publisher.Close()

	event := models.GuardianTokenCompletedEvent{
		EventID:     uuid.NewString(),
		TokenID:     uuid.New(),
		PlayerID:    uuid.New(),
		Progress:    1.005,
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(publisher.PublishTokenCompleted(s.ctx, event))

	s.waitFor(first, 1)
	s.waitFor(second, 1)
	for _, h := range []*recordingHandler{first, second} {
		got := h.received()
		s.Require().Len(got, 1)
		s.Equal(event.TokenID, got[0].TokenID)
		s.Equal(event.PlayerID, got[0].PlayerID)
		s.InDelta(event.Progress, got[0].Progress, 1e-12)
		s.True(event.CompletedAt.Equal(got[0].CompletedAt))
	}
}

func (s *MessagingIntegrationSuite) TestHandlerFailureDoesNotBlockNextEvents() {
	h := newRecordingHandler()
	h.err = errors.New("redis down")
	s.startConsumer(h)

	publisher, err := messaging.NewRabbitMQGuardianEventPublisher(s.conn, zap.NewNop())
	s.Require().NoError(err)
	defer publisher.Close()

	for i := 0; i < 2; i++ {
		s.Require().NoError(publisher.PublishTokenCompleted(s.ctx, models.GuardianTokenCompletedEvent{
			EventID: uuid.NewString(), TokenID: uuid.New(), PlayerID: uuid.New(), Progress: 1, CompletedAt: time.Now(),
		}))
	}

	// Без requeue каждое сообщение приходит ровно один раз
	s.waitFor(h, 2)
	select {
	case <-h.got:
		s.Fail("event was redelivered")
	case <-time.After(500 * time.Millisecond):
	}
	s.Len(h.received(), 2)
}

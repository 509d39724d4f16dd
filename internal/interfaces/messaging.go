package interfaces

import (
	"context"

	"guardian-server/internal/models"
)

// GuardianEventPublisher публикует события о завершении жетонов.
type GuardianEventPublisher interface {
	PublishTokenCompleted(ctx context.Context, event models.GuardianTokenCompletedEvent) error
}

// Broadcaster рассылает сообщения подключенным realtime клиентам.
type Broadcaster interface {
	Broadcast(message []byte)
}

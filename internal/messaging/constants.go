package messaging

const (
	// GuardianEventsExchange - fanout exchange событий о жетонах.
	GuardianEventsExchange     = "guardian_events"
	guardianEventsExchangeType = "fanout"

	// EventTypeTokenCompleted - значение заголовка Type для события завершения жетона.
	EventTypeTokenCompleted = "guardian.token.completed"
)

package interfaces

// EventPublisher forwards pending requests and notifications to the messaging
// layer. Delivery is best-effort; the ledger guarantees nothing about it.
type EventPublisher interface {
	Publish(topic string, event any) error
}

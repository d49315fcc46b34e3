package events

// Message is one event received from the bus.
type Message struct {
	Topic string // concrete subject, even when subscribed by wildcard
	Data  []byte // JSON-encoded event
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on any of topics to the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topics ...string) (<-chan Message, func(), error)
	Close() error
}

package mqtt

import "context"

// Publisher delivers a payload to the configured schedule topic.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close()
}

// NopPublisher is used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []byte) error { return nil }
func (NopPublisher) Close()                                {}

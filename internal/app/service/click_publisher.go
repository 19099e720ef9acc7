package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/trisend/trisend/internal/app/model"
)

// ClickPublisher is a ClickSink that hands assembled clicks to NATS JetStream.
// A ClickConsumer persists them later.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Deliver publishes the click to the stream.
func (p *ClickPublisher) Deliver(ctx context.Context, code string, click *model.Click) error {
	click.LinkCode = code

	data, err := json.Marshal(click)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data, nats.Context(ctx))
	return err
}

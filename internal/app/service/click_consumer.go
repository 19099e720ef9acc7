package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/trisend/trisend/internal/app/model"
	natsclient "github.com/trisend/trisend/internal/infra/nats"
	"go.uber.org/zap"
)

const (
	consumerBatchSize = 10
	consumerMaxWait   = 5 * time.Second
)

// ClickConsumer drains published clicks from JetStream into a sink.
// Messages that fail are terminated, not redelivered.
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	sink   ClickSink
	stop   chan struct{}
	done   chan struct{}
}

// NewClickConsumer creates a new click consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, sink ClickSink) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{
		js:     js,
		logger: logger,
		sink:   sink,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *ClickConsumer) Start() error {
	if err := natsclient.EnsureClickStream(c.js); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// Stop ends the consume loop and waits for the current batch.
func (c *ClickConsumer) Stop() {
	close(c.stop)
	<-c.done
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	defer close(c.done)
	ctx := context.Background()

	for {
		select {
		case <-c.stop:
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(consumerBatchSize, nats.MaxWait(consumerMaxWait))
		if err != nil {
			switch {
			case errors.Is(err, nats.ErrTimeout):
			case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
				c.logger.Warn("click consumer subscription closed", zap.Error(err))
				return
			default:
				c.logger.Error("failed to fetch click messages", zap.Error(err))
			}
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *ClickConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var click model.Click
	if err := json.Unmarshal(msg.Data, &click); err != nil {
		c.logger.Error("failed to unmarshal click", zap.Error(err))
		_ = msg.Term()
		return
	}

	if err := c.sink.Deliver(ctx, click.LinkCode, &click); err != nil {
		c.logger.Error("failed to store click",
			zap.String("id", click.ID),
			zap.String("link_code", click.LinkCode),
			zap.Error(err))
		_ = msg.Term()
		return
	}

	c.logger.Debug("click stored",
		zap.String("id", click.ID),
		zap.String("link_code", click.LinkCode),
		zap.Time("ts", click.TS),
	)
	_ = msg.Ack()
}

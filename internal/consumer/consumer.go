// Package consumer bridges the NATS JetStream chain-log stream to the
// reconciliation engine. Processing is strictly sequential (one outstanding
// message) because the stream's per-contract ordering is the only ordering
// the engine gets.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/adapter"
	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
)

// Handler processes one chain log
type Handler interface {
	Handle(ctx context.Context, log *domain.ChainLog) error
}

// Consumer is a durable JetStream consumer feeding the engine
type Consumer struct {
	js      adapter.JetStream
	json    adapter.JSON
	handler Handler
	cfg     config.NATSConfig

	baseCtx context.Context
}

// New creates a consumer
func New(js adapter.JetStream, jsonAdapter adapter.JSON, handler Handler, cfg config.NATSConfig) *Consumer {
	return &Consumer{
		js:      js,
		json:    jsonAdapter,
		handler: handler,
		cfg:     cfg,
	}
}

// Start creates or updates the durable consumer and begins consuming.
// MaxAckPending of one keeps delivery strictly sequential.
func (c *Consumer) Start(ctx context.Context) (adapter.ConsumeContext, error) {
	c.baseCtx = ctx

	ackWait := c.cfg.AckWait
	if ackWait == 0 {
		ackWait = 30 * time.Second
	}

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       c.cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       ackWait,
		MaxDeliver:    c.cfg.MaxDeliver,
		MaxAckPending: 1,
	})
	if err != nil {
		return nil, err
	}

	return consumer.Consume(c.handleMessage, jetstream.PullMaxMessages(1))
}

// handleMessage decodes one envelope and runs its handler. Unparseable
// payloads are terminated since redelivery cannot fix them; handler errors are
// negatively acknowledged so the idempotent handler converges on retry.
func (c *Consumer) handleMessage(msg adapter.Message) {
	ctx := c.baseCtx

	var chainLog domain.ChainLog
	if err := c.json.Unmarshal(msg.Data(), &chainLog); err != nil {
		logger.ErrorCtx(ctx, err, zap.ByteString("payload", msg.Data()))
		c.terminate(ctx, msg)
		return
	}

	if err := c.handler.Handle(ctx, &chainLog); err != nil {
		if errors.Is(err, domain.ErrUnknownEvent) {
			logger.ErrorCtx(ctx, err, zap.String("logID", chainLog.LogID()))
			c.terminate(ctx, msg)
			return
		}

		logger.WarnCtx(ctx, "handler failed, requesting redelivery",
			zap.String("logID", chainLog.LogID()),
			zap.String("event", chainLog.Event),
			zap.Error(err))
		if nakErr := msg.Nak(); nakErr != nil {
			logger.ErrorCtx(ctx, nakErr, zap.String("logID", chainLog.LogID()))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("logID", chainLog.LogID()))
	}
}

func (c *Consumer) terminate(ctx context.Context, msg adapter.Message) {
	if err := msg.Term(); err != nil {
		logger.ErrorCtx(ctx, err)
	}
}

package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-protocol/ep-indexer/internal/adapter"
	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/consumer"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubHandler struct {
	err  error
	logs []*domain.ChainLog
}

func (h *stubHandler) Handle(_ context.Context, log *domain.ChainLog) error {
	h.logs = append(h.logs, log)
	return h.err
}

// startConsumer wires the consumer against mocks and returns the message
// callback it registered
func startConsumer(t *testing.T, ctrl *gomock.Controller, handler consumer.Handler) adapter.MessageHandler {
	t.Helper()

	js := mocks.NewMockJetStream(ctrl)
	cons := mocks.NewMockNatsConsumer(ctrl)
	consumeCtx := mocks.NewMockConsumeContext(ctrl)

	cfg := config.NATSConfig{
		StreamName:   "CHAIN_LOGS",
		ConsumerName: "ep-indexer",
		MaxDeliver:   20,
	}

	js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), "CHAIN_LOGS", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, consumerCfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Equal(t, "ep-indexer", consumerCfg.Durable)
			assert.Equal(t, jetstream.AckExplicitPolicy, consumerCfg.AckPolicy)
			assert.Equal(t, jetstream.DeliverAllPolicy, consumerCfg.DeliverPolicy)
			assert.Equal(t, 30*time.Second, consumerCfg.AckWait)
			assert.Equal(t, 20, consumerCfg.MaxDeliver)
			assert.Equal(t, 1, consumerCfg.MaxAckPending)
			return cons, nil
		})

	var captured adapter.MessageHandler
	cons.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(messageHandler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			captured = messageHandler
			return consumeCtx, nil
		})

	c := consumer.New(js, adapter.NewJSON(), handler, cfg)
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, captured)
	return captured
}

func chainLogPayload(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(domain.ChainLog{
		Chain:       domain.ChainArbitrumOne,
		Role:        domain.RoleCampaignBank,
		Event:       "RewardAdded",
		Address:     "0x1000000000000000000000000000000000000001",
		BlockNumber: 100,
		TxHash:      "0xabc",
		LogIndex:    1,
		Args:        json.RawMessage(`{"amount":"100"}`),
	})
	require.NoError(t, err)
	return raw
}

func TestConsumerAcksOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := &stubHandler{}
	deliver := startConsumer(t, ctrl, handler)

	msg := mocks.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return(chainLogPayload(t)).AnyTimes()
	msg.EXPECT().Ack().Return(nil)

	deliver(msg)

	require.Len(t, handler.logs, 1)
	assert.Equal(t, "RewardAdded", handler.logs[0].Event)
	assert.Equal(t, domain.RoleCampaignBank, handler.logs[0].Role)
}

func TestConsumerNaksOnHandlerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := &stubHandler{err: errors.New("chain read failed")}
	deliver := startConsumer(t, ctrl, handler)

	msg := mocks.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return(chainLogPayload(t)).AnyTimes()
	msg.EXPECT().Nak().Return(nil)

	deliver(msg)

	assert.Len(t, handler.logs, 1)
}

func TestConsumerTermsOnUnparseablePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := &stubHandler{}
	deliver := startConsumer(t, ctrl, handler)

	msg := mocks.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return([]byte("{not json")).AnyTimes()
	msg.EXPECT().Term().Return(nil)

	deliver(msg)

	// redelivery cannot fix a broken payload, so the handler never runs
	assert.Empty(t, handler.logs)
}

func TestConsumerTermsOnUnknownEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := &stubHandler{err: fmt.Errorf("invalid chain log: %w", domain.ErrUnknownEvent)}
	deliver := startConsumer(t, ctrl, handler)

	msg := mocks.NewMockJetStreamMessage(ctrl)
	msg.EXPECT().Data().Return(chainLogPayload(t)).AnyTimes()
	msg.EXPECT().Term().Return(nil)

	deliver(msg)

	assert.Len(t, handler.logs, 1)
}

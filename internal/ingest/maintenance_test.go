package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/ingest"
	"github.com/engage-protocol/ep-indexer/internal/mocks"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestPrunerDisabledReturnsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pruner := ingest.NewPruner(store.NewMemoryStore(), mocks.NewMockClock(ctrl), config.MaintenanceConfig{
		PruneAdministrators: false,
	})

	done := make(chan struct{})
	go func() {
		pruner.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled pruner did not return")
	}
}

func TestPrunerRunPrunesOnTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
		ProductID: "7", UserAddress: "0xaaa", IsOwner: boolPtr(false), Roles: int64Ptr(0), Timestamp: time.Now(),
	}))
	require.NoError(t, s.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
		ProductID: "7", UserAddress: "0xbbb", IsOwner: boolPtr(true), Timestamp: time.Now(),
	}))

	interval := time.Minute
	tick := make(chan time.Time, 1)
	tick <- time.Now()

	clock := mocks.NewMockClock(ctrl)
	// the first wait fires immediately, later waits block until cancellation
	first := true
	clock.EXPECT().After(interval).DoAndReturn(func(time.Duration) <-chan time.Time {
		if first {
			first = false
			return tick
		}
		return make(chan time.Time)
	}).AnyTimes()

	pruner := ingest.NewPruner(s, clock, config.MaintenanceConfig{
		PruneAdministrators: true,
		PruneInterval:       interval,
		PruneBatchSize:      10,
		WorkerPoolSize:      1,
	})

	done := make(chan struct{})
	go func() {
		pruner.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		rows, err := s.ListProductAdministrators(context.Background(), "7")
		return err == nil && len(rows) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop on cancellation")
	}
}

func TestPruneOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
		ProductID: "7", UserAddress: "0xaaa", IsOwner: boolPtr(false), Roles: int64Ptr(0), Timestamp: time.Now(),
	}))

	pruner := ingest.NewPruner(s, mocks.NewMockClock(ctrl), config.MaintenanceConfig{
		PruneAdministrators: true,
		PruneBatchSize:      10,
	})

	pruned, err := pruner.PruneOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}

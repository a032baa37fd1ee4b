// Package ingest is the event-to-state reconciliation engine. It receives
// ordered chain logs, dispatches them to per-event handlers and materializes
// the relational view. Handlers are idempotent under exact redelivery: every
// creation path is guarded by an existence check or conflict-ignoring insert
// and every counter mutation is an additive merge gated by an audit row.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/chain"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

// HandlerFunc processes one chain log
type HandlerFunc func(ctx context.Context, log *domain.ChainLog) error

// Engine dispatches chain logs to event handlers by (contract role, event name)
type Engine struct {
	store    store.Store
	reader   chain.Reader
	handlers map[domain.ContractRole]map[string]HandlerFunc
}

// NewEngine creates an engine with the full handler registry
func NewEngine(s store.Store, r chain.Reader) *Engine {
	e := &Engine{
		store:  s,
		reader: r,
	}

	e.handlers = map[domain.ContractRole]map[string]HandlerFunc{
		domain.RoleProductRegistry: {
			"ProductMinted":  e.handleProductMinted,
			"ProductUpdated": e.handleProductUpdated,
			"Transfer":       e.handleProductTransfer,
		},
		domain.RoleProductAdminRegistry: {
			"ProductRolesUpdated": e.handleProductRolesUpdated,
		},
		domain.RoleInteractionManager: {
			"InteractionContractDeployed": e.handleInteractionContractDeployed,
			"InteractionContractUpdated":  e.handleInteractionContractUpdated,
			"InteractionContractDeleted":  e.handleInteractionContractDeleted,
		},
		domain.RoleInteraction: {
			"CampaignAttached":    e.handleCampaignAttached,
			"CampaignDetached":    e.handleCampaignDetached,
			"ArticleOpened":       e.activityHandler(domain.InteractionOpenArticle, store.StatsIncrement{OpenInteractions: 1}),
			"ArticleRead":         e.activityHandler(domain.InteractionReadArticle, store.StatsIncrement{ReadInteractions: 1}),
			"PurchaseStarted":     e.activityHandler(domain.InteractionPurchaseStarted, store.StatsIncrement{PurchaseStartedInteractions: 1}),
			"PurchaseCompleted":   e.activityHandler(domain.InteractionPurchaseCompleted, store.StatsIncrement{PurchaseCompletedInteractions: 1}),
			"ReferralLinkCreated": e.activityHandler(domain.InteractionReferralLinkCreate, store.StatsIncrement{CreateReferredLinkInteractions: 1}),
			"UserReferred":        e.activityHandler(domain.InteractionReferred, store.StatsIncrement{ReferredInteractions: 1}),
			"WebshopOpened":       e.activityHandler(domain.InteractionWebshopOpened, store.StatsIncrement{WebshopOpenedInteractions: 1}),
		},
		domain.RoleCampaignFactory: {
			"CampaignCreated": e.handleCampaignCreated,
		},
		domain.RoleCampaign: {
			"DistributionCapReset": e.handleDistributionCapReset,
		},
		domain.RoleCampaignBankFactory: {
			"CampaignBankCreated": e.handleCampaignBankCreated,
		},
		domain.RoleCampaignBank: {
			"CampaignAuthorisationUpdated": e.handleCampaignAuthorisationUpdated,
			"DistributionStateUpdated":     e.handleDistributionStateUpdated,
			"RewardAdded":                  e.handleRewardAdded,
			"RewardClaimed":                e.handleRewardClaimed,
		},
	}

	return e
}

// Handle dispatches one chain log to its handler. Logs without a registered
// handler are skipped so new upstream event kinds never wedge the stream.
func (e *Engine) Handle(ctx context.Context, log *domain.ChainLog) error {
	if !log.Valid() {
		return fmt.Errorf("invalid chain log %s: %w", log.LogID(), domain.ErrUnknownEvent)
	}

	byEvent, ok := e.handlers[log.Role]
	if !ok {
		logger.WarnCtx(ctx, "no handlers for contract role",
			zap.String("role", string(log.Role)),
			zap.String("logID", log.LogID()))
		return nil
	}
	handler, ok := byEvent[log.Event]
	if !ok {
		logger.WarnCtx(ctx, "no handler for event",
			zap.String("role", string(log.Role)),
			zap.String("event", log.Event),
			zap.String("logID", log.LogID()))
		return nil
	}

	return handler(ctx, log)
}

func decodeArgs[T any](log *domain.ChainLog) (*T, error) {
	var args T
	if err := json.Unmarshal(log.Args, &args); err != nil {
		return nil, fmt.Errorf("decoding %s args for %s: %w", log.Event, log.LogID(), err)
	}
	return &args, nil
}

package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/engage-protocol/ep-indexer/internal/namecodec"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

// MemoryStore is an in-memory Store used in tests. It mirrors the merge
// semantics of PGStore closely enough that handler behavior can be asserted
// without a database.
type MemoryStore struct {
	mu sync.Mutex

	products       map[string]*schema.Product
	administrators map[string]*schema.ProductAdministrator
	interactions   map[string]*schema.InteractionContract
	campaigns      map[string]*schema.Campaign
	stats          map[string]*schema.ReferralCampaignStats
	capResets      map[string]*schema.CampaignCapReset
	banks          map[string]*schema.BankingContract
	tokens         map[string]*schema.Token
	rewards        map[string]*schema.Reward
	rewardAdds     map[string]*schema.RewardAddedEvent
	rewardClaims   map[string]*schema.RewardClaimedEvent
	activity       map[string]*schema.InteractionEvent
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:       map[string]*schema.Product{},
		administrators: map[string]*schema.ProductAdministrator{},
		interactions:   map[string]*schema.InteractionContract{},
		campaigns:      map[string]*schema.Campaign{},
		stats:          map[string]*schema.ReferralCampaignStats{},
		capResets:      map[string]*schema.CampaignCapReset{},
		banks:          map[string]*schema.BankingContract{},
		tokens:         map[string]*schema.Token{},
		rewards:        map[string]*schema.Reward{},
		rewardAdds:     map[string]*schema.RewardAddedEvent{},
		rewardClaims:   map[string]*schema.RewardClaimedEvent{},
		activity:       map[string]*schema.InteractionEvent{},
	}
}

func pairKey(a, b string) string {
	return a + "|" + b
}

func addDecimal(current, delta string) string {
	a, err := namecodec.ParseAmount(current)
	if err != nil {
		return current
	}
	b, err := namecodec.ParseAmount(delta)
	if err != nil {
		return current
	}
	return namecodec.AmountString(namecodec.AddAmounts(a, b))
}

func subDecimal(current, delta string) string {
	a, err := namecodec.ParseAmount(current)
	if err != nil {
		return current
	}
	b, err := namecodec.ParseAmount(delta)
	if err != nil {
		return current
	}
	return namecodec.AmountString(namecodec.SubAmounts(a, b))
}

// GetProductByID retrieves a product by its on-chain id
func (s *MemoryStore) GetProductByID(_ context.Context, id string) (*schema.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// InsertProduct creates a product row, ignoring a duplicate mint
func (s *MemoryStore) InsertProduct(_ context.Context, p *schema.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return nil
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

// UpdateProduct applies a partial patch, guarded against block regression
func (s *MemoryStore) UpdateProduct(_ context.Context, id string, patch ProductPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.LastUpdateBlock > patch.BlockNumber {
		return nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ProductTypes != nil {
		p.ProductTypes = *patch.ProductTypes
	}
	if patch.MetadataURL != nil {
		p.MetadataURL = patch.MetadataURL
	}
	p.LastUpdateTimestamp = patch.Timestamp
	p.LastUpdateBlock = patch.BlockNumber
	return nil
}

// UpsertProductAdministrator inserts or merges a (product, user) role row
func (s *MemoryStore) UpsertProductAdministrator(_ context.Context, in UpsertAdministratorInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(in.ProductID, in.UserAddress)
	row, ok := s.administrators[key]
	if !ok {
		row = &schema.ProductAdministrator{
			ID:               int64(len(s.administrators) + 1),
			ProductID:        in.ProductID,
			UserAddress:      in.UserAddress,
			CreatedTimestamp: in.Timestamp,
		}
		s.administrators[key] = row
	}
	if in.IsOwner != nil {
		row.IsOwner = *in.IsOwner
	}
	if in.Roles != nil {
		row.Roles = *in.Roles
	}
	return nil
}

// GetProductAdministrator retrieves one administrator row
func (s *MemoryStore) GetProductAdministrator(_ context.Context, productID, userAddress string) (*schema.ProductAdministrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.administrators[pairKey(productID, userAddress)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

// ListProductAdministrators retrieves all administrator rows for a product
func (s *MemoryStore) ListProductAdministrators(_ context.Context, productID string) ([]*schema.ProductAdministrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*schema.ProductAdministrator
	for _, row := range s.administrators {
		if row.ProductID == productID {
			cp := *row
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserAddress < rows[j].UserAddress })
	return rows, nil
}

// PruneInertAdministrators deletes up to limit rows holding neither ownership
// nor roles
func (s *MemoryStore) PruneInertAdministrators(_ context.Context, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for key, row := range s.administrators {
		if pruned >= int64(limit) {
			break
		}
		if !row.IsOwner && row.Roles == 0 {
			delete(s.administrators, key)
			pruned++
		}
	}
	return pruned, nil
}

// GetInteractionContract retrieves an interaction contract by address
func (s *MemoryStore) GetInteractionContract(_ context.Context, address string) (*schema.InteractionContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.interactions[address]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// InsertInteractionContract creates an interaction contract row
func (s *MemoryStore) InsertInteractionContract(_ context.Context, c *schema.InteractionContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interactions[c.ID]; ok {
		return nil
	}
	cp := *c
	s.interactions[c.ID] = &cp
	return nil
}

// UpdateInteractionContract applies a partial patch, guarded against block regression
func (s *MemoryStore) UpdateInteractionContract(_ context.Context, address string, patch InteractionContractPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.interactions[address]
	if !ok || c.LastUpdateBlock > patch.BlockNumber {
		return nil
	}
	if patch.RemovedTimestamp != nil {
		c.RemovedTimestamp = patch.RemovedTimestamp
	}
	c.LastUpdateTimestamp = patch.Timestamp
	c.LastUpdateBlock = patch.BlockNumber
	return nil
}

// GetCampaign retrieves a campaign by address
func (s *MemoryStore) GetCampaign(_ context.Context, address string) (*schema.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[address]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// InsertCampaign creates a campaign row, ignoring a duplicate insert
func (s *MemoryStore) InsertCampaign(_ context.Context, c *schema.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; ok {
		return nil
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

// UpdateCampaign applies a partial patch, guarded against block regression
func (s *MemoryStore) UpdateCampaign(_ context.Context, address string, patch CampaignPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[address]
	if !ok || c.LastUpdateBlock > patch.BlockNumber {
		return nil
	}
	if patch.Attached != nil {
		c.Attached = *patch.Attached
	}
	if patch.AttachTimestamp != nil {
		c.AttachTimestamp = patch.AttachTimestamp
	}
	if patch.DetachTimestamp != nil {
		c.DetachTimestamp = patch.DetachTimestamp
	}
	if patch.BankingContractID != nil {
		c.BankingContractID = patch.BankingContractID
	}
	if patch.IsAuthorisedOnBanking != nil {
		c.IsAuthorisedOnBanking = *patch.IsAuthorisedOnBanking
	}
	c.LastUpdateBlock = patch.BlockNumber
	return nil
}

// ListAttachedCampaignsByType retrieves attached campaigns of the given type
// for a product
func (s *MemoryStore) ListAttachedCampaignsByType(_ context.Context, productID string, campaignType string) ([]*schema.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*schema.Campaign
	for _, c := range s.campaigns {
		if c.ProductID == productID && c.Type == campaignType && c.Attached {
			cp := *c
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// EnsureReferralCampaignStats inserts an all-zero stats row if absent
func (s *MemoryStore) EnsureReferralCampaignStats(_ context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStatsLocked(campaignID)
	return nil
}

func (s *MemoryStore) ensureStatsLocked(campaignID string) *schema.ReferralCampaignStats {
	row, ok := s.stats[campaignID]
	if !ok {
		row = zeroStats(campaignID)
		s.stats[campaignID] = row
	}
	return row
}

// GetReferralCampaignStats retrieves the stats row for a campaign
func (s *MemoryStore) GetReferralCampaignStats(_ context.Context, campaignID string) (*schema.ReferralCampaignStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.stats[campaignID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) incrementStatsLocked(campaignIDs []string, inc StatsIncrement) {
	for _, id := range campaignIDs {
		row := s.ensureStatsLocked(id)
		row.TotalInteractions = addDecimal(row.TotalInteractions, "1")
		row.OpenInteractions = addDecimal(row.OpenInteractions, strconv.FormatUint(inc.OpenInteractions, 10))
		row.ReadInteractions = addDecimal(row.ReadInteractions, strconv.FormatUint(inc.ReadInteractions, 10))
		row.ReferredInteractions = addDecimal(row.ReferredInteractions, strconv.FormatUint(inc.ReferredInteractions, 10))
		row.CreateReferredLinkInteractions = addDecimal(row.CreateReferredLinkInteractions, strconv.FormatUint(inc.CreateReferredLinkInteractions, 10))
		row.PurchaseStartedInteractions = addDecimal(row.PurchaseStartedInteractions, strconv.FormatUint(inc.PurchaseStartedInteractions, 10))
		row.PurchaseCompletedInteractions = addDecimal(row.PurchaseCompletedInteractions, strconv.FormatUint(inc.PurchaseCompletedInteractions, 10))
		row.WebshopOpenedInteractions = addDecimal(row.WebshopOpenedInteractions, strconv.FormatUint(inc.WebshopOpenedInteractions, 10))
	}
}

// InsertCampaignCapReset appends a cap reset row, ignoring duplicates
func (s *MemoryStore) InsertCampaignCapReset(_ context.Context, r *schema.CampaignCapReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(r.CampaignID, r.PreviousTimestamp.UTC().String())
	if _, ok := s.capResets[key]; ok {
		return nil
	}
	cp := *r
	cp.ID = int64(len(s.capResets) + 1)
	s.capResets[key] = &cp
	return nil
}

// ListCampaignCapResets retrieves cap resets for a campaign, oldest first
func (s *MemoryStore) ListCampaignCapResets(_ context.Context, campaignID string) ([]*schema.CampaignCapReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*schema.CampaignCapReset
	for _, r := range s.capResets {
		if r.CampaignID == campaignID {
			cp := *r
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PreviousTimestamp.Before(rows[j].PreviousTimestamp) })
	return rows, nil
}

// GetBankingContract retrieves a banking contract by address
func (s *MemoryStore) GetBankingContract(_ context.Context, address string) (*schema.BankingContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[address]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

// InsertBankingContract creates a banking contract row, ignoring a duplicate insert
func (s *MemoryStore) InsertBankingContract(_ context.Context, b *schema.BankingContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banks[b.ID]; ok {
		return nil
	}
	cp := *b
	s.banks[b.ID] = &cp
	return nil
}

// UpdateBankingContract applies a partial patch
func (s *MemoryStore) UpdateBankingContract(_ context.Context, address string, patch BankingContractPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[address]
	if !ok {
		return nil
	}
	if patch.IsDistributing != nil {
		b.IsDistributing = *patch.IsDistributing
	}
	return nil
}

// EnsureToken inserts a token metadata row if absent
func (s *MemoryStore) EnsureToken(_ context.Context, t *schema.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.ID]; ok {
		return nil
	}
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

// GetToken retrieves a token by address
func (s *MemoryStore) GetToken(_ context.Context, address string) (*schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[address]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// ApplyRewardAddition materializes one RewardAdded log, gated by the audit insert
func (s *MemoryStore) ApplyRewardAddition(_ context.Context, in RewardAdditionInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewardAdds[in.LogID]; ok {
		return false, nil
	}
	amount := in.Amount.String()
	s.rewardAdds[in.LogID] = &schema.RewardAddedEvent{
		ID:                in.LogID,
		BankingContractID: in.BankAddress,
		UserAddress:       in.UserAddress,
		EmitterAddress:    in.EmitterAddress,
		Amount:            amount,
		Timestamp:         in.Timestamp,
		BlockNumber:       in.BlockNumber,
	}

	if bank, ok := s.banks[in.BankAddress]; ok {
		bank.TotalDistributed = addDecimal(bank.TotalDistributed, amount)
	}

	key := pairKey(in.BankAddress, in.UserAddress)
	reward, ok := s.rewards[key]
	if !ok {
		reward = &schema.Reward{
			ID:                int64(len(s.rewards) + 1),
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			PendingAmount:     "0",
			TotalReceived:     "0",
			TotalClaimed:      "0",
		}
		s.rewards[key] = reward
	}
	reward.PendingAmount = addDecimal(reward.PendingAmount, amount)
	reward.TotalReceived = addDecimal(reward.TotalReceived, amount)

	stats := s.ensureStatsLocked(in.EmitterAddress)
	stats.TotalRewards = addDecimal(stats.TotalRewards, amount)
	return true, nil
}

// ApplyRewardClaim materializes one RewardClaimed log, gated by the audit insert
func (s *MemoryStore) ApplyRewardClaim(_ context.Context, in RewardClaimInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewardClaims[in.LogID]; ok {
		return false, nil
	}
	amount := in.Amount.String()
	s.rewardClaims[in.LogID] = &schema.RewardClaimedEvent{
		ID:                in.LogID,
		BankingContractID: in.BankAddress,
		UserAddress:       in.UserAddress,
		Amount:            amount,
		Timestamp:         in.Timestamp,
		BlockNumber:       in.BlockNumber,
	}

	if bank, ok := s.banks[in.BankAddress]; ok {
		bank.TotalClaimed = addDecimal(bank.TotalClaimed, amount)
	}

	key := pairKey(in.BankAddress, in.UserAddress)
	reward, ok := s.rewards[key]
	if !ok {
		s.rewards[key] = &schema.Reward{
			ID:                int64(len(s.rewards) + 1),
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			PendingAmount:     "0",
			TotalReceived:     "0",
			TotalClaimed:      amount,
		}
		return true, nil
	}
	reward.PendingAmount = subDecimal(reward.PendingAmount, amount)
	reward.TotalClaimed = addDecimal(reward.TotalClaimed, amount)
	return true, nil
}

// GetReward retrieves the (bank, user) reward row
func (s *MemoryStore) GetReward(_ context.Context, bankAddress, userAddress string) (*schema.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rewards[pairKey(bankAddress, userAddress)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

// ListRewardsByUser retrieves all reward rows for a user
func (s *MemoryStore) ListRewardsByUser(_ context.Context, userAddress string) ([]*schema.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*schema.Reward
	for _, r := range s.rewards {
		if r.UserAddress == userAddress {
			cp := *r
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BankingContractID < rows[j].BankingContractID })
	return rows, nil
}

// ApplyInteraction appends the activity row and applies the stats increments,
// gated by the activity insert
func (s *MemoryStore) ApplyInteraction(_ context.Context, e *schema.InteractionEvent, campaignIDs []string, inc StatsIncrement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activity[e.ID]; ok {
		return false, nil
	}
	cp := *e
	s.activity[e.ID] = &cp
	s.incrementStatsLocked(campaignIDs, inc)
	return true, nil
}

// ListInteractionEventsByUser retrieves activity rows for a user, newest first
func (s *MemoryStore) ListInteractionEventsByUser(_ context.Context, userAddress string, limit int) ([]*schema.InteractionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*schema.InteractionEvent
	for _, e := range s.activity {
		if e.UserAddress == userAddress {
			cp := *e
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BlockNumber != rows[j].BlockNumber {
			return rows[i].BlockNumber > rows[j].BlockNumber
		}
		return rows[i].ID > rows[j].ID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

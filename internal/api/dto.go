package api

import (
	"encoding/json"
	"time"

	"github.com/engage-protocol/ep-indexer/internal/namecodec"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

// Monetary and counter values cross the API boundary as decimal strings.
// decimalString is the explicit codec: it validates the stored value and
// renders it canonically instead of patching any ambient numeric type.
func decimalString(s string) string {
	v, err := namecodec.ParseAmount(s)
	if err != nil {
		// negative pending balances are an observable invariant violation
		// and are passed through untouched
		return s
	}
	return namecodec.AmountString(v)
}

// ProductResponse is the API projection of a product row
type ProductResponse struct {
	ID                  string    `json:"id"`
	Domain              string    `json:"domain"`
	ProductTypes        int64     `json:"productTypes"`
	Name                string    `json:"name"`
	CreatedTimestamp    time.Time `json:"createdTimestamp"`
	LastUpdateTimestamp time.Time `json:"lastUpdateTimestamp"`
	LastUpdateBlock     uint64    `json:"lastUpdateBlock"`
	MetadataURL         *string   `json:"metadataUrl,omitempty"`
}

func toProductResponse(p *schema.Product) ProductResponse {
	return ProductResponse{
		ID:                  decimalString(p.ID),
		Domain:              p.Domain,
		ProductTypes:        p.ProductTypes,
		Name:                p.Name,
		CreatedTimestamp:    p.CreatedTimestamp,
		LastUpdateTimestamp: p.LastUpdateTimestamp,
		LastUpdateBlock:     p.LastUpdateBlock,
		MetadataURL:         p.MetadataURL,
	}
}

// AdministratorResponse is the API projection of an administrator row
type AdministratorResponse struct {
	ProductID        string    `json:"productId"`
	UserAddress      string    `json:"userAddress"`
	IsOwner          bool      `json:"isOwner"`
	Roles            int64     `json:"roles"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
}

func toAdministratorResponse(a *schema.ProductAdministrator) AdministratorResponse {
	return AdministratorResponse{
		ProductID:        decimalString(a.ProductID),
		UserAddress:      a.UserAddress,
		IsOwner:          a.IsOwner,
		Roles:            a.Roles,
		CreatedTimestamp: a.CreatedTimestamp,
	}
}

// CampaignResponse is the API projection of a campaign row
type CampaignResponse struct {
	ID                    string     `json:"id"`
	Type                  string     `json:"type"`
	Name                  string     `json:"name"`
	Version               string     `json:"version"`
	ProductID             string     `json:"productId"`
	InteractionContractID string     `json:"interactionContractId"`
	Attached              bool       `json:"attached"`
	AttachTimestamp       *time.Time `json:"attachTimestamp,omitempty"`
	DetachTimestamp       *time.Time `json:"detachTimestamp,omitempty"`
	BankingContractID     *string    `json:"bankingContractId,omitempty"`
	IsAuthorisedOnBanking bool       `json:"isAuthorisedOnBanking"`
}

func toCampaignResponse(c *schema.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:                    c.ID,
		Type:                  c.Type,
		Name:                  c.Name,
		Version:               c.Version,
		ProductID:             decimalString(c.ProductID),
		InteractionContractID: c.InteractionContractID,
		Attached:              c.Attached,
		AttachTimestamp:       c.AttachTimestamp,
		DetachTimestamp:       c.DetachTimestamp,
		BankingContractID:     c.BankingContractID,
		IsAuthorisedOnBanking: c.IsAuthorisedOnBanking,
	}
}

// CampaignStatsResponse is the API projection of a stats row
type CampaignStatsResponse struct {
	CampaignID                     string `json:"campaignId"`
	TotalInteractions              string `json:"totalInteractions"`
	OpenInteractions               string `json:"openInteractions"`
	ReadInteractions               string `json:"readInteractions"`
	ReferredInteractions           string `json:"referredInteractions"`
	CreateReferredLinkInteractions string `json:"createReferredLinkInteractions"`
	PurchaseStartedInteractions    string `json:"purchaseStartedInteractions"`
	PurchaseCompletedInteractions  string `json:"purchaseCompletedInteractions"`
	WebshopOpenedInteractions      string `json:"webshopOpenedInteractions"`
	TotalRewards                   string `json:"totalRewards"`
}

func toCampaignStatsResponse(s *schema.ReferralCampaignStats) CampaignStatsResponse {
	return CampaignStatsResponse{
		CampaignID:                     s.CampaignID,
		TotalInteractions:              decimalString(s.TotalInteractions),
		OpenInteractions:               decimalString(s.OpenInteractions),
		ReadInteractions:               decimalString(s.ReadInteractions),
		ReferredInteractions:           decimalString(s.ReferredInteractions),
		CreateReferredLinkInteractions: decimalString(s.CreateReferredLinkInteractions),
		PurchaseStartedInteractions:    decimalString(s.PurchaseStartedInteractions),
		PurchaseCompletedInteractions:  decimalString(s.PurchaseCompletedInteractions),
		WebshopOpenedInteractions:      decimalString(s.WebshopOpenedInteractions),
		TotalRewards:                   decimalString(s.TotalRewards),
	}
}

// CapResetResponse is the API projection of a cap reset row
type CapResetResponse struct {
	CampaignID        string    `json:"campaignId"`
	PreviousTimestamp time.Time `json:"previousTimestamp"`
	DistributedAmount string    `json:"distributedAmount"`
	Timestamp         time.Time `json:"timestamp"`
	BlockNumber       uint64    `json:"blockNumber"`
}

func toCapResetResponse(r *schema.CampaignCapReset) CapResetResponse {
	return CapResetResponse{
		CampaignID:        r.CampaignID,
		PreviousTimestamp: r.PreviousTimestamp,
		DistributedAmount: decimalString(r.DistributedAmount),
		Timestamp:         r.Timestamp,
		BlockNumber:       r.BlockNumber,
	}
}

// RewardResponse is the API projection of a reward row
type RewardResponse struct {
	BankingContractID string `json:"bankingContractId"`
	UserAddress       string `json:"userAddress"`
	PendingAmount     string `json:"pendingAmount"`
	TotalReceived     string `json:"totalReceived"`
	TotalClaimed      string `json:"totalClaimed"`
}

func toRewardResponse(r *schema.Reward) RewardResponse {
	return RewardResponse{
		BankingContractID: r.BankingContractID,
		UserAddress:       r.UserAddress,
		PendingAmount:     decimalString(r.PendingAmount),
		TotalReceived:     decimalString(r.TotalReceived),
		TotalClaimed:      decimalString(r.TotalClaimed),
	}
}

// ActivityResponse is the API projection of an interaction event row
type ActivityResponse struct {
	ID                    string          `json:"id"`
	InteractionContractID string          `json:"interactionContractId"`
	UserAddress           string          `json:"userAddress"`
	Type                  string          `json:"type"`
	Data                  json.RawMessage `json:"data,omitempty"`
	Timestamp             time.Time       `json:"timestamp"`
	BlockNumber           uint64          `json:"blockNumber"`
}

func toActivityResponse(e *schema.InteractionEvent) ActivityResponse {
	return ActivityResponse{
		ID:                    e.ID,
		InteractionContractID: e.InteractionContractID,
		UserAddress:           e.UserAddress,
		Type:                  e.Type,
		Data:                  json.RawMessage(e.Data),
		Timestamp:             e.Timestamp,
		BlockNumber:           e.BlockNumber,
	}
}

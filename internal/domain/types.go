package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainArbitrumOne     Chain = "eip155:42161"
	ChainArbitrumSepolia Chain = "eip155:421614"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet ||
		chain == ChainArbitrumOne ||
		chain == ChainArbitrumSepolia
}

// ContractRole identifies which contract family emitted a log.
// The upstream gateway tags every log with the role of the emitting contract
// so the engine can resolve the handler without knowing every deployed address.
type ContractRole string

const (
	RoleProductRegistry      ContractRole = "product_registry"
	RoleProductAdminRegistry ContractRole = "product_admin_registry"
	RoleInteractionManager   ContractRole = "interaction_manager"
	RoleInteraction          ContractRole = "interaction"
	RoleCampaignFactory      ContractRole = "campaign_factory"
	RoleCampaign             ContractRole = "campaign"
	RoleCampaignBankFactory  ContractRole = "campaign_bank_factory"
	RoleCampaignBank         ContractRole = "campaign_bank"
)

// CampaignType tags the behavior of a campaign contract.
// Only referral campaigns carry a stats aggregate.
type CampaignType string

const (
	CampaignTypeReferral CampaignType = "frak.campaign.referral"
	CampaignTypeFixed    CampaignType = "frak.campaign.fixed"
)

// InteractionType is the categorical tag stored on each activity log row
type InteractionType string

const (
	InteractionOpenArticle        InteractionType = "open_article"
	InteractionReadArticle        InteractionType = "read_article"
	InteractionPurchaseStarted    InteractionType = "purchase_started"
	InteractionPurchaseCompleted  InteractionType = "purchase_completed"
	InteractionReferralLinkCreate InteractionType = "referral_link_created"
	InteractionReferred           InteractionType = "referred"
	InteractionWebshopOpened      InteractionType = "webshop_opened"
)

// ChainLog is the typed event descriptor delivered by the chain data gateway.
// The gateway guarantees per-contract ordering (non-decreasing
// block/tx/log-index) with at-least-once delivery; every handler must
// therefore be idempotent under exact redelivery.
type ChainLog struct {
	Chain       Chain           `json:"chain"`
	Role        ContractRole    `json:"role"`
	Event       string          `json:"event"`
	Address     string          `json:"address"`      // emitting contract address
	BlockNumber uint64          `json:"block_number"` // block of the log
	Timestamp   time.Time       `json:"timestamp"`    // block timestamp
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint64          `json:"log_index"`
	Args        json.RawMessage `json:"args"` // decoded event arguments
}

// LogID returns the globally unique identifier of the source log.
// It encodes chain, block, transaction and log index so replays of the
// same log always map to the same identity.
func (l *ChainLog) LogID() string {
	return fmt.Sprintf("%s:%d:%s:%d", l.Chain, l.BlockNumber, l.TxHash, l.LogIndex)
}

// Valid performs a shallow sanity check on the envelope
func (l *ChainLog) Valid() bool {
	if !IsValidChain(l.Chain) {
		return false
	}
	if l.Role == "" || l.Event == "" {
		return false
	}
	if !common.IsHexAddress(l.Address) {
		return false
	}
	return l.TxHash != ""
}

// NormalizeAddress normalizes an EVM address to its checksummed form
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// IsZeroAddress reports whether the address is empty or the EVM zero address
func IsZeroAddress(address string) bool {
	return address == "" || NormalizeAddress(address) == EVM_ZERO_ADDRESS
}

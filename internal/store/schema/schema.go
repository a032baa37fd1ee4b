package schema

// AllModels returns every model managed by the indexer, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Product{},
		&ProductAdministrator{},
		&InteractionContract{},
		&Campaign{},
		&ReferralCampaignStats{},
		&CampaignCapReset{},
		&BankingContract{},
		&Token{},
		&Reward{},
		&RewardAddedEvent{},
		&RewardClaimedEvent{},
		&InteractionEvent{},
	}
}

package exports

// Quota is the export capacity snapshot shown to the user before an
// export attempt. Remaining is the monthly portion only; PurchasedTokens
// counts usable token balance on top of it.
type Quota struct {
	Limit           int  `json:"limit"`
	Used            int  `json:"used"`
	Remaining       int  `json:"remaining"`
	PurchasedTokens int  `json:"purchased_tokens"`
	TotalAvailable  int  `json:"total_available"`
	HasWatermark    bool `json:"has_watermark"`
	Unlimited       bool `json:"unlimited"`
}

// Decision is the outcome of one export attempt. When Allowed is false,
// Reason carries a user-facing explanation and the quota fields let the
// caller render an upsell with exact numbers.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	HasWatermark bool   `json:"has_watermark"`
	TokenFunded  bool   `json:"token_funded"`
	Reason       string `json:"reason,omitempty"`
	Quota        Quota  `json:"quota"`
}

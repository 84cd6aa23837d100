package chain

import "time"

// Side identifies the option side of a contract.
type Side string

const (
	SideCall Side = "CALL"
	SidePut  Side = "PUT"
)

// ExpiryLabel classifies an expiration by its calendar position relative to
// the full available-date list, not by any inherent contract property.
type ExpiryLabel string

const (
	LabelZeroDTE ExpiryLabel = "0DTE"
	LabelWeekly  ExpiryLabel = "WEEKLY"
	LabelMonthly ExpiryLabel = "MONTHLY"
	LabelSingle  ExpiryLabel = "SINGLE"
	LabelExtra   ExpiryLabel = "EXTRA"
)

// Contract is a single option row as fetched from the provider.
// Immutable once fetched. OpenInterest and Volume are 0 when the provider
// reports them as unknown; ImpliedVol 0 means unknown.
type Contract struct {
	Strike       float64 `json:"strike"`
	Side         Side    `json:"side"`
	OpenInterest int     `json:"oi"`
	Volume       int     `json:"vol"`
	ImpliedVol   float64 `json:"iv"`
}

// ExpirySet holds the full chain for one selected expiration date.
type ExpirySet struct {
	Label     ExpiryLabel `json:"label"`
	Date      time.Time   `json:"date"`
	Contracts []Contract  `json:"contracts"`
}

// Snapshot is one fetched chain for a symbol: spot price with provenance,
// the selected expiries, and the full list of available expiration dates.
type Snapshot struct {
	Symbol     string      `json:"symbol"`
	Spot       float64     `json:"spot"`
	SpotSource string      `json:"spotSource"`
	Generated  time.Time   `json:"generated"`
	Available  []string    `json:"availableExpirations"`
	Expiries   []ExpirySet `json:"expiries"`
}

// Spot price provenance tags. The analytics core never interprets these.
const (
	SpotSourceFastQuote  = "fast_quote"
	SpotSourceDailyClose = "daily_close"
)

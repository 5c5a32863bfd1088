package quota

import "time"

// DenyReason is the machine-readable cause of a quota denial.
type DenyReason string

const (
	ReasonDailyLimitReached   DenyReason = "daily_limit_reached"
	ReasonInsufficientCredits DenyReason = "insufficient_credits"
)

// WalletRecord matches the credit_wallets table schema.
type WalletRecord struct {
	Identity     string `json:"identity"`
	Balance      int    `json:"balance"`
	LastGrantDay string `json:"last_grant_day"`
	Timezone     string `json:"timezone"`
}

// UsageStatus reports the free-tier meter for one identity today.
type UsageStatus struct {
	Count     int       `json:"count"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// WalletStatus reports the paid-tier wallet after any pending daily grant.
type WalletStatus struct {
	Balance     int       `json:"balance"`
	GrantPerDay int       `json:"grant_per_day"`
	MaxBalance  int       `json:"max_balance"`
	ResetTo     int       `json:"reset_to,omitempty"`
	ResetAt     time.Time `json:"reset_at"`
}

// MeterStatus carries whichever meter is active; exactly one field is set.
type MeterStatus struct {
	Usage   *UsageStatus  `json:"usage,omitempty"`
	Credits *WalletStatus `json:"credits,omitempty"`
}

// Decision is the outcome of an authorization attempt. When Authorized is
// false, Reason explains why and Meter holds the state the UI should show.
type Decision struct {
	Authorized bool        `json:"authorized"`
	Reason     DenyReason  `json:"reason,omitempty"`
	Meter      MeterStatus `json:"meter"`
}

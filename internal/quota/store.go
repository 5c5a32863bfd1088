package quota

import "context"

// UsageStore persists free-tier usage counts keyed by (identity, day).
// Rows are append-only per day: counts only increase, old days stay around.
type UsageStore interface {
	// IncrementIfUnder atomically increments the (identity, day) count if it
	// is currently below limit, creating the row on first use. It returns the
	// post-increment count and whether the increment happened. The two steps
	// are a single transactional unit: concurrent callers cannot push the
	// count past limit. Callers must ensure limit >= 1.
	IncrementIfUnder(ctx context.Context, identity, day string, limit int) (int, bool, error)

	// Count returns the stored count for (identity, day); 0 if absent.
	Count(ctx context.Context, identity, day string) (int, error)
}

// WalletStore persists paid-tier credit wallets keyed by identity.
// Grant application is conditional on the stored last_grant_day so that it
// fires exactly once per calendar day no matter how many callers race.
type WalletStore interface {
	// GetOrCreate returns the wallet row, creating it with the given seed
	// balance, day and timezone label if absent.
	GetOrCreate(ctx context.Context, identity string, seed int, day, tz string) (*WalletRecord, error)

	// ApplyResetTo sets balance to exactly resetTo and last_grant_day to day,
	// but only when last_grant_day precedes day.
	ApplyResetTo(ctx context.Context, identity string, resetTo int, day string) error

	// ApplyGrant adds grant credits per elapsed calendar day since
	// last_grant_day, capped at maxBalance, and advances last_grant_day to
	// day; a no-op when last_grant_day does not precede day.
	ApplyGrant(ctx context.Context, identity string, grant, maxBalance int, day string) error

	// Debit atomically subtracts amount when balance covers it. Returns
	// whether the debit happened; an insufficient balance is not mutated.
	Debit(ctx context.Context, identity string, amount int) (bool, error)
}

package quota

import (
	"context"

	"github.com/promptwizard-app/promptwizard/internal/config"
	"github.com/promptwizard-app/promptwizard/internal/timeday"
)

// Wallet is the paid-tier credit balance. Replenishment is lazy: every read
// or spend first applies any pending daily grant, there is no background
// job. Two mutually exclusive policies exist: when ResetTo is positive the
// balance is overwritten to that value once per day; otherwise a positive
// DailyGrant is added per elapsed calendar day, capped at MaxBalance.
type Wallet struct {
	store WalletStore
	clock *timeday.Clock
	cfg   config.QuotaConfig
}

// NewWallet creates a Wallet with the configured replenishment policy.
func NewWallet(store WalletStore, clock *timeday.Clock, cfg config.QuotaConfig) *Wallet {
	return &Wallet{store: store, clock: clock, cfg: cfg}
}

// seed is the balance a brand-new wallet starts with.
func (w *Wallet) seed() int {
	if w.cfg.ResetTo > 0 {
		return w.cfg.ResetTo
	}
	return max(w.cfg.InitialCredits, 0)
}

// sync creates the wallet if needed, applies any due daily grant, and
// returns the up-to-date row. The grant UPDATE is conditional on
// last_grant_day, so concurrent calls apply it at most once.
func (w *Wallet) sync(ctx context.Context, identity string) (*WalletRecord, error) {
	today := w.clock.TodayKey()

	if _, err := w.store.GetOrCreate(ctx, identity, w.seed(), today, w.clock.Zone()); err != nil {
		return nil, err
	}

	switch {
	case w.cfg.ResetTo > 0:
		if err := w.store.ApplyResetTo(ctx, identity, w.cfg.ResetTo, today); err != nil {
			return nil, err
		}
	case w.cfg.DailyGrant > 0:
		if err := w.store.ApplyGrant(ctx, identity, w.cfg.DailyGrant, w.cfg.MaxBalance, today); err != nil {
			return nil, err
		}
	}

	return w.store.GetOrCreate(ctx, identity, w.seed(), today, w.clock.Zone())
}

// Spend debits amount credits after applying any pending grant. False means
// the balance was insufficient and nothing was debited.
func (w *Wallet) Spend(ctx context.Context, identity string, amount int) (bool, error) {
	if _, err := w.sync(ctx, identity); err != nil {
		return false, err
	}
	return w.store.Debit(ctx, identity, amount)
}

// Status reports the wallet after applying any pending grant.
func (w *Wallet) Status(ctx context.Context, identity string) (*WalletStatus, error) {
	rec, err := w.sync(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &WalletStatus{
		Balance:     rec.Balance,
		GrantPerDay: w.cfg.DailyGrant,
		MaxBalance:  w.cfg.MaxBalance,
		ResetTo:     w.cfg.ResetTo,
		ResetAt:     w.clock.NextResetAt(),
	}, nil
}

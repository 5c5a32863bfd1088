package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository handles usage_counts PostgreSQL operations.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

var _ UsageStore = (*UsageRepository)(nil)

// IncrementIfUnder performs the check-then-increment as one statement, so two
// concurrent calls for the same identity cannot both pass at the last slot.
func (r *UsageRepository) IncrementIfUnder(ctx context.Context, identity, day string, limit int) (int, bool, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO usage_counts (identity, day, count) VALUES ($1, $2, 1)
		 ON CONFLICT (identity, day) DO UPDATE
		 SET count = usage_counts.count + 1, updated_at = NOW()
		 WHERE usage_counts.count < $3
		 RETURNING count`, identity, day, limit,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("incrementing usage count: %w", err)
	}
	return count, true, nil
}

// Count returns today's stored count for an identity; a missing row is 0.
func (r *UsageRepository) Count(ctx context.Context, identity, day string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count FROM usage_counts WHERE identity = $1 AND day = $2`, identity, day,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetching usage count: %w", err)
	}
	return count, nil
}

// WalletRepository handles credit_wallets PostgreSQL operations.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

var _ WalletStore = (*WalletRepository)(nil)

// GetOrCreate returns the identity's wallet row, creating one if it doesn't exist.
func (r *WalletRepository) GetOrCreate(ctx context.Context, identity string, seed int, day, tz string) (*WalletRecord, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO credit_wallets (identity, balance, last_grant_day, timezone)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (identity) DO NOTHING`, identity, seed, day, tz)
	if err != nil {
		return nil, fmt.Errorf("ensuring wallet: %w", err)
	}

	var w WalletRecord
	err = r.pool.QueryRow(ctx,
		`SELECT identity, balance, last_grant_day, timezone
		 FROM credit_wallets WHERE identity = $1`, identity,
	).Scan(&w.Identity, &w.Balance, &w.LastGrantDay, &w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("fetching wallet: %w", err)
	}
	return &w, nil
}

// ApplyResetTo overwrites the balance once per day, whatever it was before.
func (r *WalletRepository) ApplyResetTo(ctx context.Context, identity string, resetTo int, day string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE credit_wallets
		 SET balance = $2, last_grant_day = $3, updated_at = NOW()
		 WHERE identity = $1 AND last_grant_day < $3`, identity, resetTo, day)
	if err != nil {
		return fmt.Errorf("applying wallet reset: %w", err)
	}
	return nil
}

// ApplyGrant tops up one grant per elapsed calendar day, capped at maxBalance.
// The day arithmetic runs inside the UPDATE, so catch-up after downtime and
// the once-per-day guard are both atomic.
func (r *WalletRepository) ApplyGrant(ctx context.Context, identity string, grant, maxBalance int, day string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE credit_wallets
		 SET balance = LEAST(balance + $2 * (to_date($3, 'YYYY-MM-DD') - to_date(last_grant_day, 'YYYY-MM-DD')), $4),
		     last_grant_day = $3,
		     updated_at = NOW()
		 WHERE identity = $1 AND last_grant_day < $3`, identity, grant, day, maxBalance)
	if err != nil {
		return fmt.Errorf("applying wallet grant: %w", err)
	}
	return nil
}

// Debit spends credits with the balance check in the same statement; an
// insufficient balance leaves the row untouched.
func (r *WalletRepository) Debit(ctx context.Context, identity string, amount int) (bool, error) {
	var balance int
	err := r.pool.QueryRow(ctx,
		`UPDATE credit_wallets
		 SET balance = balance - $2, updated_at = NOW()
		 WHERE identity = $1 AND balance >= $2
		 RETURNING balance`, identity, amount,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("debiting wallet: %w", err)
	}
	return true, nil
}

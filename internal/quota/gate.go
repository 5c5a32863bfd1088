package quota

import (
	"context"
	"fmt"

	"github.com/promptwizard-app/promptwizard/internal/config"
)

// Gate is the single authorization entry point for metered actions. The
// active mechanism is fixed at construction; requests never switch modes.
//
// Store failures propagate as errors: an unreachable store denies the
// action rather than letting it through unmetered.
type Gate struct {
	mode   string
	meter  *Meter
	wallet *Wallet
}

// NewGate creates a Gate dispatching to the meter (free mode) or the
// wallet (paid mode).
func NewGate(mode string, meter *Meter, wallet *Wallet) *Gate {
	return &Gate{mode: mode, meter: meter, wallet: wallet}
}

// Mode returns the active accounting mode.
func (g *Gate) Mode() string { return g.mode }

// Authorize decides whether the identity may perform one action and
// accounts for it. The returned Decision always carries the current meter
// state so callers can show remaining quota and the reset countdown.
func (g *Gate) Authorize(ctx context.Context, identity string) (*Decision, error) {
	switch g.mode {
	case config.ModePaid:
		ok, err := g.wallet.Spend(ctx, identity, 1)
		if err != nil {
			return nil, fmt.Errorf("authorizing spend: %w", err)
		}
		status, err := g.wallet.Status(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("reading wallet status: %w", err)
		}
		d := &Decision{Authorized: ok, Meter: MeterStatus{Credits: status}}
		if !ok {
			d.Reason = ReasonInsufficientCredits
		}
		return d, nil

	case config.ModeFree:
		ok, err := g.meter.AuthorizeAndRecord(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("authorizing usage: %w", err)
		}
		status, err := g.meter.Status(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("reading usage status: %w", err)
		}
		d := &Decision{Authorized: ok, Meter: MeterStatus{Usage: status}}
		if !ok {
			d.Reason = ReasonDailyLimitReached
		}
		return d, nil

	default:
		return nil, fmt.Errorf("unknown quota mode %q", g.mode)
	}
}

// Status reports the active meter without authorizing anything. In paid
// mode this still applies the lazy daily grant, which is idempotent for
// the day.
func (g *Gate) Status(ctx context.Context, identity string) (*MeterStatus, error) {
	switch g.mode {
	case config.ModePaid:
		status, err := g.wallet.Status(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("reading wallet status: %w", err)
		}
		return &MeterStatus{Credits: status}, nil
	case config.ModeFree:
		status, err := g.meter.Status(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("reading usage status: %w", err)
		}
		return &MeterStatus{Usage: status}, nil
	default:
		return nil, fmt.Errorf("unknown quota mode %q", g.mode)
	}
}

package quota

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptwizard-app/promptwizard/internal/timeday"
)

// MemoryStore is an in-process UsageStore and WalletStore. It is meant for
// tests and single-instance development runs; state does not survive a
// restart and is not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	usage   map[usageKey]int
	wallets map[string]*WalletRecord
}

type usageKey struct {
	identity string
	day      string
}

var (
	_ UsageStore  = (*MemoryStore)(nil)
	_ WalletStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usage:   make(map[usageKey]int),
		wallets: make(map[string]*WalletRecord),
	}
}

func (s *MemoryStore) IncrementIfUnder(_ context.Context, identity, day string, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{identity: identity, day: day}
	if s.usage[key] >= limit {
		return 0, false, nil
	}
	s.usage[key]++
	return s.usage[key], true, nil
}

func (s *MemoryStore) Count(_ context.Context, identity, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[usageKey{identity: identity, day: day}], nil
}

func (s *MemoryStore) GetOrCreate(_ context.Context, identity string, seed int, day, tz string) (*WalletRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[identity]
	if !ok {
		w = &WalletRecord{Identity: identity, Balance: seed, LastGrantDay: day, Timezone: tz}
		s.wallets[identity] = w
	}
	copied := *w
	return &copied, nil
}

func (s *MemoryStore) ApplyResetTo(_ context.Context, identity string, resetTo int, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[identity]
	if !ok || w.LastGrantDay >= day {
		return nil
	}
	w.Balance = resetTo
	w.LastGrantDay = day
	return nil
}

func (s *MemoryStore) ApplyGrant(_ context.Context, identity string, grant, maxBalance int, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[identity]
	if !ok || w.LastGrantDay >= day {
		return nil
	}
	days, err := timeday.DaysBetween(w.LastGrantDay, day)
	if err != nil {
		return fmt.Errorf("applying wallet grant: %w", err)
	}
	w.Balance = min(w.Balance+grant*days, maxBalance)
	w.LastGrantDay = day
	return nil
}

func (s *MemoryStore) Debit(_ context.Context, identity string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[identity]
	if !ok || w.Balance < amount {
		return false, nil
	}
	w.Balance -= amount
	return true, nil
}

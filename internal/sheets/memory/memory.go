package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"saldo/internal/core"
)

// Store is an in-memory report sink used in tests and local development.
// Rows are keyed by period, matching the upsert semantics of the real sheet.
type Store struct {
	mu   sync.Mutex
	rows map[string]core.PeriodBalance
	keys []string // insertion order
}

func New() *Store {
	return &Store{rows: make(map[string]core.PeriodBalance)}
}

// AppendPeriodReport stores the balance and returns a synthetic row reference.
func (s *Store) AppendPeriodReport(_ context.Context, pb core.PeriodBalance) (string, error) {
	if pb.PeriodKey == "" {
		return "", errors.New("empty period key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[pb.PeriodKey]; !exists {
		s.keys = append(s.keys, pb.PeriodKey)
	}
	s.rows[pb.PeriodKey] = pb
	for i, k := range s.keys {
		if k == pb.PeriodKey {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	return "", errors.New("row lost") // unreachable
}

// Rows returns the stored balances in insertion order.
func (s *Store) Rows() []core.PeriodBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PeriodBalance, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.rows[k])
	}
	return out
}

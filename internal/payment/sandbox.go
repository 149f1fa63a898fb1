package payment

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sandbox accepts every request and hands out random refs. Outcomes are
// reported by posting to the callback route by hand.
type Sandbox struct {
	mu           sync.Mutex
	transactions []CashResult
}

func NewSandbox() *Sandbox { return &Sandbox{} }

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) CashIn(_ context.Context, amount float64, _ string) (*CashResult, error) {
	return s.record("CASHIN", amount), nil
}

func (s *Sandbox) CashOut(_ context.Context, amount float64, _ string) (*CashResult, error) {
	return s.record("CASHOUT", amount), nil
}

func (s *Sandbox) Transactions(context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(map[string]any{"transactions": s.transactions, "total": len(s.transactions)})
}

func (s *Sandbox) record(kind string, amount float64) *CashResult {
	res := CashResult{
		Ref:       uuid.NewString(),
		Status:    "pending",
		Amount:    amount,
		Kind:      kind,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.transactions = append(s.transactions, res)
	s.mu.Unlock()
	return &res
}

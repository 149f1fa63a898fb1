// Package payment talks to the mobile-money gateway that collects order
// payments and pays money out.
package payment

import (
	"context"
	"encoding/json"
	"errors"
)

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=payment

var ErrGateway = errors.New("payment gateway error")

// CashResult is the gateway's answer to a cash-in or cash-out request. The
// final outcome of a cash-in arrives later on the callback.
type CashResult struct {
	Ref       string  `json:"ref"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Kind      string  `json:"kind"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type Gateway interface {
	Name() string
	CashIn(ctx context.Context, amount float64, number string) (*CashResult, error)
	CashOut(ctx context.Context, amount float64, number string) (*CashResult, error)
	// Transactions returns the gateway's transaction listing unchanged.
	Transactions(ctx context.Context) (json.RawMessage, error)
}

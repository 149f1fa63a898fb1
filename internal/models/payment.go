package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "Pending"
	PaymentSuccessful PaymentStatus = "Successful"
	PaymentFailed     PaymentStatus = "Failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccessful, PaymentFailed:
		return true
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccessful || s == PaymentFailed
}

// Payment tracks the collection of one order's total through the gateway.
// Ref is the latest gateway prompt; PreviousRefs keeps the prompts it
// replaced so their callbacks still resolve to this payment.
type Payment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID      primitive.ObjectID `bson:"order" json:"order"`
	UserID       primitive.ObjectID `bson:"user" json:"user"`
	Amount       float64            `bson:"amount" json:"amount"`
	Status       PaymentStatus      `bson:"status" json:"status"`
	Ref          string             `bson:"ref,omitempty" json:"ref,omitempty"`
	PreviousRefs []string           `bson:"previousRefs,omitempty" json:"previousRefs,omitempty"`
	// SettledRef is the ref whose callback moved the payment out of Pending.
	SettledRef string `bson:"settledRef,omitempty" json:"settledRef,omitempty"`
	// RefundRefs lists approved prompts whose money no order can keep.
	RefundRefs []string  `bson:"refundRefs,omitempty" json:"refundRefs,omitempty"`
	Number     string    `bson:"number,omitempty" json:"number,omitempty"`
	Provider   string    `bson:"provider,omitempty" json:"provider,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (p Payment) RefundDue() bool { return len(p.RefundRefs) > 0 }

// HasRef reports whether ref is the current or a replaced prompt.
func (p Payment) HasRef(ref string) bool {
	if ref == "" {
		return false
	}
	if p.Ref == ref {
		return true
	}
	for _, prev := range p.PreviousRefs {
		if prev == ref {
			return true
		}
	}
	return false
}

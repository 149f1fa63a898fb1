package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderCompleted OrderStatus = "Completed"
	OrderCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, st := range []OrderStatus{OrderPending, OrderCompleted, OrderCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// OrderLine is an immutable snapshot of what was bought.
type OrderLine struct {
	ProductID  primitive.ObjectID  `bson:"product" json:"product"`
	ColorID    *primitive.ObjectID `bson:"color,omitempty" json:"color,omitempty"`
	CategoryID *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	BrandID    *primitive.ObjectID `bson:"brand,omitempty" json:"brand,omitempty"`
	Name       string              `bson:"name" json:"name"`
	UnitPrice  float64             `bson:"unitPrice" json:"unitPrice"`
	Count      int                 `bson:"count" json:"count"`
}

// Order defines the persisted order document.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"orderby" json:"orderby"`
	Lines           []OrderLine         `bson:"products" json:"products"`
	ShippingAddress string              `bson:"shippingAddress" json:"shippingAddress"`
	TotalOrderPrice float64             `bson:"totalOrderPrice" json:"totalOrderPrice"`
	OrderStatus     OrderStatus         `bson:"orderStatus" json:"orderStatus"`
	PaymentID       *primitive.ObjectID `bson:"payment,omitempty" json:"payment,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ComputeTotal sums unitPrice × count over the lines.
func ComputeTotal(lines []OrderLine) float64 {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineAmount(line.UnitPrice, line.Count))
	}
	return Cents(total)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine keeps the unit price captured when the line was added.
type CartLine struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	ProductID primitive.ObjectID  `bson:"product" json:"product"`
	ColorID   *primitive.ObjectID `bson:"color,omitempty" json:"color,omitempty"`
	Count     int                 `bson:"count" json:"count"`
	Price     float64             `bson:"price" json:"price"`
}

// Cart is the single open cart of a user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"cartby" json:"cartby"`
	Lines     []CartLine         `bson:"products" json:"products"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindLine returns the index of the line for product+color, or -1.
func (c Cart) FindLine(productID primitive.ObjectID, colorID *primitive.ObjectID) int {
	for i, line := range c.Lines {
		if line.ProductID == productID && sameRef(line.ColorID, colorID) {
			return i
		}
	}
	return -1
}

func (c Cart) Total() float64 {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(LineAmount(line.Price, line.Count))
	}
	return Cents(total)
}

func sameRef(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is one user's star rating of a product.
type Rating struct {
	Star     int                `bson:"star" json:"star"`
	Comment  string             `bson:"comment,omitempty" json:"comment,omitempty"`
	PostedBy primitive.ObjectID `bson:"postedBy" json:"postedBy"`
}

type Product struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"productName" json:"productName"`
	Description   string              `bson:"description" json:"description"`
	Price         float64             `bson:"price" json:"price"`
	SaleEnabled   bool                `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice     float64             `bson:"salePrice" json:"salePrice"`
	IsOnSale      bool                `bson:"-" json:"isOnSale"`
	BrandID       *primitive.ObjectID `bson:"brand,omitempty" json:"brand,omitempty"`
	ColorID       *primitive.ObjectID `bson:"color,omitempty" json:"color,omitempty"`
	CategoryID    *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Images        StringList          `bson:"productImage" json:"productImage"`
	Ratings       []Rating            `bson:"ratings" json:"ratings"`
	TotalRating   float64             `bson:"totalRating" json:"totalRating"`
	StockQuantity int                 `bson:"stock_quantity" json:"stock_quantity"`
	InStock       bool                `bson:"-" json:"inStock"`
	IsDeleted     bool                `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt     *time.Time          `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// UnitPrice is the price a buyer pays right now.
func (p Product) UnitPrice() float64 {
	return EffectivePrice(p.Price, p.SaleEnabled, p.SalePrice)
}

// Decorate fills the derived, non-persisted fields.
func (p *Product) Decorate() {
	p.IsOnSale = IsOnSale(p.Price, p.SaleEnabled, p.SalePrice)
	p.InStock = p.StockQuantity > 0
}

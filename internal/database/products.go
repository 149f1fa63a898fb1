package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type productRepo struct {
	col *mongo.Collection
}

var notDeleted = bson.M{"$ne": true}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	if p.Ratings == nil {
		p.Ratings = []models.Rating{}
	}
	_, err := r.col.InsertOne(ctx, p)
	return mapErr(err)
}

func (r *productRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id, "isDeleted": notDeleted}).Decode(&p)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	filter := bson.M{"isDeleted": notDeleted}
	if f.CategoryID != nil {
		filter["category"] = *f.CategoryID
	}
	if f.BrandID != nil {
		filter["brand"] = *f.BrandID
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"productName": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip((page - 1) * f.Limit).SetLimit(f.Limit)
	}

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Name != nil {
		set["productName"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.SaleEnabled != nil {
		set["saleEnabled"] = *patch.SaleEnabled
	}
	if patch.SalePrice != nil {
		set["salePrice"] = *patch.SalePrice
	}
	if patch.BrandID != nil {
		set["brand"] = *patch.BrandID
	}
	if patch.ColorID != nil {
		set["color"] = *patch.ColorID
	}
	if patch.CategoryID != nil {
		set["category"] = *patch.CategoryID
	}
	if patch.Images != nil {
		set["productImage"] = *patch.Images
	}
	if patch.StockQuantity != nil {
		set["stock_quantity"] = *patch.StockQuantity
	}

	var updated models.Product
	err := r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "isDeleted": notDeleted},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, mapErr(err)
	}
	return &updated, nil
}

func (r *productRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": notDeleted},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now, "updatedAt": now}},
	))
}

func (r *productRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	filter := bson.M{
		"_id":            id,
		"isDeleted":      notDeleted,
		"stock_quantity": bson.M{"$gte": qty},
	}
	update := bson.M{"$inc": bson.M{"stock_quantity": -qty}}
	return matched(r.col.UpdateOne(ctx, filter, update))
}

func (r *productRepo) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock_quantity": qty}},
	))
}

func (r *productRepo) SetRatings(ctx context.Context, id primitive.ObjectID, ratings []models.Rating, total float64) error {
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": notDeleted},
		bson.M{"$set": bson.M{"ratings": ratings, "totalRating": total, "updatedAt": time.Now()}},
	))
}

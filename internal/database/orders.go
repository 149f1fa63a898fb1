package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

/* =========================
   CARTS
========================= */

type cartRepo struct {
	col *mongo.Collection
}

func (r *cartRepo) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.col.FindOne(ctx, bson.M{"cartby": userID}).Decode(&cart); err != nil {
		return nil, mapErr(err)
	}
	return &cart, nil
}

// Save upserts on cartby so a user never ends up with two carts.
func (r *cartRepo) Save(ctx context.Context, cart *models.Cart) error {
	lines := cart.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	id := cart.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	createdAt := cart.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var saved models.Cart
	err := r.col.FindOneAndUpdate(
		ctx,
		bson.M{"cartby": cart.UserID},
		bson.M{
			"$set":         bson.M{"products": lines, "updatedAt": time.Now()},
			"$setOnInsert": bson.M{"_id": id, "createdAt": createdAt},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return mapErr(err)
	}
	*cart = saved
	return nil
}

/* =========================
   ORDERS
========================= */

type orderRepo struct {
	col *mongo.Collection
}

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, o)
	return mapErr(err)
}

func (r *orderRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"orderby": userID})
}

func (r *orderRepo) List(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *orderRepo) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	return matched(r.col.UpdateOne(ctx,
		bson.M{"_id": id, "orderStatus": from},
		bson.M{"$set": bson.M{"orderStatus": to, "updatedAt": time.Now()}},
	))
}

func (r *orderRepo) SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error {
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment": paymentID, "updatedAt": time.Now()}},
	))
}

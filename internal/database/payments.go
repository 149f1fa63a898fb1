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

type paymentRepo struct {
	col *mongo.Collection
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, p)
	return mapErr(err)
}

func (r *paymentRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *paymentRepo) GetByRef(ctx context.Context, ref string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"ref": ref},
		bson.M{"previousRefs": ref},
	}})
}

func (r *paymentRepo) LatestForOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"order": orderID},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *paymentRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Payment, error) {
	var p models.Payment
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// Reinitiate runs as a pipeline update so the replaced ref is read and moved
// in the same write.
func (r *paymentRepo) Reinitiate(ctx context.Context, id primitive.ObjectID, ref, number string, amount float64) (bool, error) {
	previous := bson.M{"$ifNull": bson.A{"$previousRefs", bson.A{}}}
	hadRef := bson.M{"$and": bson.A{
		bson.M{"$gt": bson.A{bson.M{"$strLenCP": bson.M{"$ifNull": bson.A{"$ref", ""}}}, 0}},
		bson.M{"$ne": bson.A{"$ref", ref}},
	}}
	return matched(r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentPending},
		mongo.Pipeline{{{Key: "$set", Value: bson.D{
			{Key: "previousRefs", Value: bson.M{"$cond": bson.A{
				hadRef,
				bson.M{"$concatArrays": bson.A{previous, bson.A{"$ref"}}},
				previous,
			}}},
			{Key: "ref", Value: bson.M{"$literal": ref}},
			{Key: "number", Value: bson.M{"$literal": number}},
			{Key: "amount", Value: amount},
			{Key: "updatedAt", Value: time.Now()},
		}}}},
	))
}

func (r *paymentRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, ref string) (bool, error) {
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if ref != "" {
		set["settledRef"] = ref
	}
	return matched(r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	))
}

func (r *paymentRepo) FlagRefund(ctx context.Context, id primitive.ObjectID, ref string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "refundRefs": bson.M{"$ne": ref}},
		bson.M{
			"$push": bson.M{"refundRefs": ref},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, mapErr(err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return false, mapErr(err)
	}
	return false, nil
}

func (r *paymentRepo) List(ctx context.Context, status *models.PaymentStatus) ([]models.Payment, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := make([]models.Payment, 0)
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

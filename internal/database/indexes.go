package database

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: colUsers,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetName("email_unique").SetUnique(true),
				},
				{
					Keys: bson.D{{Key: "phone", Value: 1}},
					Options: options.Index().
						SetName("phone_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"phone": bson.M{"$type": "string"}}),
				},
			},
		},
		{
			collection: colCarts,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "cartby", Value: 1}},
				Options: options.Index().SetName("cartby_unique").SetUnique(true),
			}},
		},
		{
			collection: colOrders,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "orderby", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("orderby_createdAt"),
			}},
		},
		{
			collection: colPayments,
			models: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "ref", Value: 1}},
					Options: options.Index().
						SetName("ref_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"ref": bson.M{"$type": "string"}}),
				},
				{
					Keys:    bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("order_createdAt"),
				},
				{
					Keys:    bson.D{{Key: "previousRefs", Value: 1}},
					Options: options.Index().SetName("previousRefs_index"),
				},
			},
		},
		{
			collection: colRefreshTokens,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "tokenHash", Value: 1}},
				Options: options.Index().SetName("tokenHash_index"),
			}},
		},
		{
			collection: colProducts,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("isDeleted_createdAt"),
			}},
		},
		{
			collection: colBlogs,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("createdAt_desc"),
			}},
		},
	}
}

// EnsureIndexes creates the indexes the repositories rely on. Unique indexes
// back the ErrDuplicate mapping.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*opTimeout)
	defer cancel()

	for _, plan := range indexPlan() {
		log.Printf("EnsureIndexes: creating %d index(es) on %s", len(plan.models), plan.collection)
		if _, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models); err != nil {
			log.Printf("EnsureIndexes: %s index error: %v", plan.collection, err)
			return err
		}
	}
	log.Println("EnsureIndexes: indexes ready")
	return nil
}

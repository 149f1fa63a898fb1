package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type blogRepo struct {
	col *mongo.Collection
}

func (r *blogRepo) Create(ctx context.Context, b *models.Blog) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Likes == nil {
		b.Likes = []primitive.ObjectID{}
	}
	if b.Dislikes == nil {
		b.Dislikes = []primitive.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, b)
	return mapErr(err)
}

func (r *blogRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	var b models.Blog
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *blogRepo) List(ctx context.Context) ([]models.Blog, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	blogs := make([]models.Blog, 0)
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (r *blogRepo) Update(ctx context.Context, id primitive.ObjectID, patch store.BlogPatch) (*models.Blog, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.CategoryID != nil {
		set["category"] = *patch.CategoryID
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *blogRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *blogRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$inc": bson.M{"numViews": 1}})
}

func (r *blogRepo) SetReactions(ctx context.Context, id primitive.ObjectID, likes, dislikes []primitive.ObjectID) error {
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	if dislikes == nil {
		dislikes = []primitive.ObjectID{}
	}
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"likes": likes, "dislikes": dislikes, "updatedAt": time.Now()}},
	))
}

func (r *blogRepo) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Blog, error) {
	var updated models.Blog
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, mapErr(err)
	}
	return &updated, nil
}

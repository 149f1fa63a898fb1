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

/* =========================
   USERS
========================= */

type userRepo struct {
	col *mongo.Collection
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Wishlist == nil {
		u.Wishlist = []primitive.ObjectID{}
	}
	if u.Orders == nil {
		u.Orders = []primitive.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, u)
	return mapErr(err)
}

func (r *userRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if phone == "" {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now()
	return matchedOrNotFound(r.col.UpdateOne(ctx, bson.M{"_id": id}, update))
}

func (r *userRepo) AddOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	return r.update(ctx, userID, bson.M{"$push": bson.M{"orders": orderID}})
}

func (r *userRepo) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return r.update(ctx, userID, bson.M{"$addToSet": bson.M{"wishlist": productID}})
}

func (r *userRepo) SetPassword(ctx context.Context, userID primitive.ObjectID, hash string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"passwordHash": hash}})
}

func (r *userRepo) SetResetOTP(ctx context.Context, userID primitive.ObjectID, hash string, expiry time.Time) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"resetOtpHash": hash, "resetOtpExpiry": expiry}})
}

func (r *userRepo) ClearResetOTP(ctx context.Context, userID primitive.ObjectID) error {
	return r.update(ctx, userID, bson.M{"$unset": bson.M{"resetOtpHash": "", "resetOtpExpiry": ""}})
}

/* =========================
   REFRESH TOKENS
========================= */

type refreshTokenRepo struct {
	col *mongo.Collection
}

func (r *refreshTokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, t)
	return mapErr(err)
}

func (r *refreshTokenRepo) FindActive(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.col.FindOne(ctx, bson.M{"tokenHash": hash, "revoked": false}).Decode(&t)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error) {
	set := bson.M{"revoked": true, "revokedAt": time.Now()}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id, "revoked": false}, bson.M{"$set": set}))
}

func (r *refreshTokenRepo) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	return matched(r.col.UpdateOne(ctx,
		bson.M{"tokenHash": hash, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true, "revokedAt": time.Now()}},
	))
}

/* =========================
   CONTACTS
========================= */

type contactRepo struct {
	col *mongo.Collection
}

func (r *contactRepo) Create(ctx context.Context, c *models.Contact) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, c)
	return mapErr(err)
}

func (r *contactRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var c models.Contact
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *contactRepo) List(ctx context.Context) ([]models.Contact, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	contacts := make([]models.Contact, 0)
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepo) Respond(ctx context.Context, id primitive.ObjectID, resp models.AdminResponse, status models.ContactStatus) error {
	return matchedOrNotFound(r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"adminResponse": resp, "status": status}},
	))
}

func (r *contactRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

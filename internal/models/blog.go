package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog defines the persisted blog post. A user id is in at most one of
// Likes and Dislikes.
type Blog struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	CategoryID  *primitive.ObjectID  `bson:"category,omitempty" json:"category,omitempty"`
	NumViews    int                  `bson:"numViews" json:"numViews"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes    []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Reaction int

const (
	ReactionLike Reaction = iota + 1
	ReactionDislike
)

func (r Reaction) String() string {
	if r == ReactionDislike {
		return "dislike"
	}
	return "like"
}

// React applies userID's reaction: the same reaction twice takes it back,
// the opposite one replaces it.
func (b *Blog) React(userID primitive.ObjectID, r Reaction) {
	mine, other := &b.Likes, &b.Dislikes
	if r == ReactionDislike {
		mine, other = other, mine
	}
	*other = withoutID(*other, userID)
	if containsID(*mine, userID) {
		*mine = withoutID(*mine, userID)
		return
	}
	*mine = append(*mine, userID)
}

func (b Blog) LikedBy(userID primitive.ObjectID) bool    { return containsID(b.Likes, userID) }
func (b Blog) DislikedBy(userID primitive.ObjectID) bool { return containsID(b.Dislikes, userID) }

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func withoutID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func TestBlogLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBlogService(f.store)

	_, err := svc.Create(ctx, BlogInput{Title: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	b, err := svc.Create(ctx, BlogInput{Title: " Spring sale ", Description: "all mugs", Image: "/public/uploads/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Spring sale", b.Title)
	assert.Zero(t, b.NumViews)

	for want := 1; want <= 2; want++ {
		got, err := svc.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.NumViews)
	}

	_, err = svc.Update(ctx, b.ID, store.BlogPatch{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	blank := ""
	_, err = svc.Update(ctx, b.ID, store.BlogPatch{Title: &blank})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	desc := "mugs and plates"
	updated, err := svc.Update(ctx, b.ID, store.BlogPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "mugs and plates", updated.Description)
	assert.Equal(t, "Spring sale", updated.Title)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, b.ID), apperr.KindNotFound))
}

func TestBlogReactionsKeepListsExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBlogService(f.store)
	b, err := svc.Create(ctx, BlogInput{Title: "news"})
	require.NoError(t, err)
	ann, bob := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := svc.React(ctx, ann, b.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.True(t, got.LikedBy(ann))

	got, err = svc.React(ctx, bob, b.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.True(t, got.DislikedBy(bob))
	assert.Len(t, got.Likes, 1)

	got, err = svc.React(ctx, ann, b.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.False(t, got.LikedBy(ann), "a dislike replaces the like")
	assert.True(t, got.DislikedBy(ann))
	assert.Empty(t, got.Likes)
	assert.Len(t, got.Dislikes, 2)

	got, err = svc.React(ctx, ann, b.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.False(t, got.DislikedBy(ann), "the same reaction twice withdraws it")

	stored, err := f.store.Blogs.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{bob}, stored.Dislikes)
	assert.Empty(t, stored.Likes)

	_, err = svc.React(ctx, ann, primitive.NewObjectID(), models.ReactionLike)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

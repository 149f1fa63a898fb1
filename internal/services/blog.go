package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type BlogService struct {
	store store.Store
}

func NewBlogService(s store.Store) *BlogService {
	return &BlogService{store: s}
}

type BlogInput struct {
	Title       string
	Description string
	CategoryID  *primitive.ObjectID
	Image       string
}

func (s *BlogService) Create(ctx context.Context, in BlogInput) (*models.Blog, error) {
	title, err := requireText(in.Title, "title")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &models.Blog{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Image:       in.Image,
		Likes:       []primitive.ObjectID{},
		Dislikes:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Blogs.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	log.Println("[BLOG] [INFO] blog created:", b.ID.Hex())
	return b, nil
}

func (s *BlogService) Update(ctx context.Context, id primitive.ObjectID, patch store.BlogPatch) (*models.Blog, error) {
	if patch.Empty() {
		return nil, apperr.Validation("nothing to update")
	}
	if patch.Title != nil {
		title, err := requireText(*patch.Title, "title")
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	b, err := s.store.Blogs.Update(ctx, id, patch)
	if err != nil {
		return nil, lookupErr(err, "blog")
	}
	return b, nil
}

// Get returns the post and counts the view.
func (s *BlogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	b, err := s.store.Blogs.IncrementViews(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "blog")
	}
	return b, nil
}

func (s *BlogService) List(ctx context.Context) ([]models.Blog, error) {
	blogs, err := s.store.Blogs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

func (s *BlogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.Blogs.Delete(ctx, id); err != nil {
		return lookupErr(err, "blog")
	}
	log.Println("[BLOG] [INFO] blog deleted:", id.Hex())
	return nil
}

// React records a like or dislike of userID. Reacting the same way twice
// withdraws the reaction.
func (s *BlogService) React(ctx context.Context, userID, blogID primitive.ObjectID, r models.Reaction) (*models.Blog, error) {
	var b *models.Blog
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.store.Blogs.Get(ctx, blogID)
		if err != nil {
			return lookupErr(err, "blog")
		}
		b.React(userID, r)
		if err := s.store.Blogs.SetReactions(ctx, b.ID, b.Likes, b.Dislikes); err != nil {
			return lookupErr(err, "blog")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[BLOG] [INFO] %s on %s by %s", r, blogID.Hex(), userID.Hex())
	return b, nil
}

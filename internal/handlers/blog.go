package handlers

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/internal/store"
)

const blogImageField = "image"

type blogForm struct {
	Title       *string
	Description *string
	CategoryID  *string
	Image       *multipart.FileHeader
}

// parseBlogForm reads the blog multipart form. Absent fields stay nil.
func parseBlogForm(c *gin.Context) (blogForm, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		log.Println("[BLOG] [ERROR] multipart parse failed:", err)
		return blogForm{}, apperr.Validation("invalid multipart form")
	}

	var form blogForm
	if value, ok := lastPostForm(c, "title"); ok {
		form.Title = &value
	}
	if value, ok := lastPostForm(c, "description"); ok {
		value = strings.TrimSpace(value)
		form.Description = &value
	}
	if value, ok := lastPostForm(c, "category"); ok {
		form.CategoryID = &value
	} else if value, ok := lastPostForm(c, "categoryId"); ok {
		form.CategoryID = &value
	}
	if files := c.Request.MultipartForm.File[blogImageField]; len(files) > 0 {
		form.Image = files[len(files)-1]
	}
	return form, nil
}

// saveBlogImage stores the optional image and reports the URL, or "" when
// the form had none. A rejected file is answered here.
func saveBlogImage(c *gin.Context, route string, uploader storage.Uploader, file *multipart.FileHeader) (string, bool) {
	if file == nil {
		return "", true
	}
	url, err := uploader.Save(c.Request.Context(), file)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return "", false
	}
	if err != nil {
		respondError(c, route, err)
		return "", false
	}
	return url, true
}

func CreateBlog(blogs *services.BlogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /blog/create"
		defer handlePanic(c, route)

		form, err := parseBlogForm(c)
		if err != nil {
			respondError(c, route, err)
			return
		}
		in := services.BlogInput{}
		if form.Title != nil {
			in.Title = *form.Title
		}
		if form.Description != nil {
			in.Description = *form.Description
		}
		if form.CategoryID != nil {
			if in.CategoryID, err = parseOptionalObjectID(*form.CategoryID, "category"); err != nil {
				respondError(c, route, err)
				return
			}
		}

		url, ok := saveBlogImage(c, route, uploader, form.Image)
		if !ok {
			return
		}
		in.Image = url

		ctx := c.Request.Context()
		blog, err := blogs.Create(ctx, in)
		if err != nil {
			if url != "" {
				discardImages(ctx, uploader, []string{url})
			}
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "blog created", "blog": blog})
	}
}

func UpdateBlog(blogs *services.BlogService, uploader storage.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /blog/update/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		form, err := parseBlogForm(c)
		if err != nil {
			respondError(c, route, err)
			return
		}
		patch := store.BlogPatch{Title: form.Title, Description: form.Description}
		if form.CategoryID != nil {
			if patch.CategoryID, err = parseOptionalObjectID(*form.CategoryID, "category"); err != nil {
				respondError(c, route, err)
				return
			}
		}

		url, ok := saveBlogImage(c, route, uploader, form.Image)
		if !ok {
			return
		}
		if url != "" {
			patch.Image = &url
		}

		ctx := c.Request.Context()
		blog, err := blogs.Update(ctx, id, patch)
		if err != nil {
			if url != "" {
				discardImages(ctx, uploader, []string{url})
			}
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "blog updated", "blog": blog})
	}
}

func GetBlog(blogs *services.BlogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /blog/get/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		blog, err := blogs.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"blog": blog})
	}
}

func ViewAllBlogs(blogs *services.BlogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /blog/viewAll"
		defer handlePanic(c, route)

		list, err := blogs.List(c.Request.Context())
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"blogs": list})
	}
}

func DeleteBlog(blogs *services.BlogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /blog/delete/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		if err := blogs.Delete(c.Request.Context(), id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "blog deleted"})
	}
}

// ReactToBlog serves both the like and the dislike route.
func ReactToBlog(blogs *services.BlogService, r models.Reaction) gin.HandlerFunc {
	route := "POST /blog/" + r.String() + "/:id"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		blog, err := blogs.React(c.Request.Context(), userID, id, r)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"blog":       blog,
			"isLiked":    blog.LikedBy(userID),
			"isDisliked": blog.DislikedBy(userID),
		})
	}
}

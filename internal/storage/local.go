// Package storage persists uploaded product images and returns their public
// URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxImageSize = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image")

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

type Uploader interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// Local writes files under Root/products and serves them from BaseURL.
type Local struct {
	Root    string
	BaseURL string
}

func NewLocal(root, baseURL string) *Local {
	return &Local{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("%w: file extension is required", ErrUnsupportedImage)
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("%w: file too large (max 5MB)", ErrUnsupportedImage)
	}

	filename := primitive.NewObjectID().Hex() + extension
	dir := filepath.Join(l.Root, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] save: failed to create directory %s: %v", dir, err)
		return "", err
	}

	fullPath := filepath.Join(dir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] save: failed to create file %s: %v", fullPath, err)
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] save: failed to write %s: %v", fullPath, err)
		_ = os.Remove(fullPath)
		return "", err
	}

	log.Printf("[UPLOAD] saved %s (%d bytes)", fullPath, file.Size)
	return l.BaseURL + "/products/" + filename, nil
}

// Delete removes a file previously returned by Save. URLs that do not point
// into the upload root are refused.
func (l *Local) Delete(_ context.Context, publicURL string) error {
	trimmed := strings.TrimSpace(publicURL)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, l.BaseURL+"/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", publicURL)
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, l.BaseURL+"/")), "/")
	cleanBase := filepath.Clean(l.Root)
	target := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(cleanRel)))
	if target == cleanBase || !strings.HasPrefix(target, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", publicURL)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

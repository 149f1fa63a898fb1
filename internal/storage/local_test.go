package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(root, "http://localhost:4000/public/uploads/")

	url, err := l.Save(context.Background(), fileHeader(t, "shoe.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:4000/public/uploads/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(root, "products", filepath.Base(url))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(context.Background(), url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalRejectsBadInput(t *testing.T) {
	l := NewLocal(t.TempDir(), "http://cdn.test/uploads")

	_, err := l.Save(context.Background(), fileHeader(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	assert.Error(t, l.Delete(context.Background(), "http://elsewhere.test/products/a.png"))
	assert.Error(t, l.Delete(context.Background(), "http://cdn.test/uploads/.."))
	assert.NoError(t, l.Delete(context.Background(), ""))
}

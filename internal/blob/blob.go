package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a blob doesn't exist.
	ErrNotFound = errors.New("blob: not found")

	// ErrInvalidKey is returned for keys that could escape the store.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Store is the interface for blob storage backends.
type Store interface {
	// Put stores the contents of r under key and returns the bytes written.
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error

	// URL is the retrieval locator clients use for key.
	URL(key string) string

	// KeyFromURL reverses URL. It reports false for URLs this store
	// did not issue.
	KeyFromURL(url string) (string, bool)
}

// NewKey generates a random object key that keeps the extension of filename.
func NewKey(filename string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return hex.EncodeToString(b) + ext, nil
}

// validKey rejects empty keys and anything with a path component.
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`)
}

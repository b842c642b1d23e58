package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"pdf-coview/internal/blob"
	"pdf-coview/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBlobs is an in-memory blob.Store.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (m *memBlobs) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *memBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[key]; !ok {
		return blob.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) URL(key string) string { return "/uploads/" + key }

func (m *memBlobs) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, "/uploads/")
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// memDocs is an in-memory DocumentRepository.
type memDocs struct {
	mu        sync.Mutex
	byURL     map[string]*models.Document
	createErr error
}

func newMemDocs() *memDocs {
	return &memDocs{byURL: make(map[string]*models.Document)}
}

func (m *memDocs) Create(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.byURL[doc.URL] = doc
	return nil
}

func (m *memDocs) get(url string) (*models.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.byURL[url]
	return doc, ok
}

func (m *memDocs) DeleteByURL(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byURL, url)
	return nil
}

func pdfBody(size int) []byte {
	body := []byte("%PDF-1.7\n")
	if size > len(body) {
		body = append(body, bytes.Repeat([]byte("x"), size-len(body))...)
	}
	return body
}

func TestUploadService_StoresPDF(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocs()
	svc := NewUploadService(blobs, docs, 1024)

	doc, err := svc.Upload(context.Background(), "slides.pdf", "application/pdf", bytes.NewReader(pdfBody(300)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.URL, "/uploads/"))
	assert.Equal(t, int64(300), doc.Size)
	assert.Equal(t, "slides.pdf", doc.Filename)
	assert.Equal(t, 1, blobs.count())

	stored, ok := docs.get(doc.URL)
	require.True(t, ok)
	assert.Equal(t, doc.StorageKey, stored.StorageKey)
}

func TestUploadService_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantErr     error
	}{
		{name: "wrong declared type", contentType: "image/png", body: pdfBody(100), wantErr: ErrNotPDF},
		{name: "garbage type", contentType: ";;;", body: pdfBody(100), wantErr: ErrNotPDF},
		{name: "not really a pdf", contentType: "application/pdf", body: []byte("<html>hi</html>"), wantErr: ErrNotPDF},
		{name: "empty", contentType: "application/pdf", body: nil, wantErr: ErrEmptyFile},
		{name: "too large", contentType: "application/pdf", body: pdfBody(1025), wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newMemBlobs()
			svc := NewUploadService(blobs, newMemDocs(), 1024)

			_, err := svc.Upload(context.Background(), "f.pdf", tt.contentType, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrUploadRejected)
			assert.Zero(t, blobs.count(), "rejected uploads leave nothing behind")
		})
	}
}

func TestUploadService_ExactLimitIsAccepted(t *testing.T) {
	svc := NewUploadService(newMemBlobs(), newMemDocs(), 1024)

	doc, err := svc.Upload(context.Background(), "f.pdf", "application/pdf; charset=binary", bytes.NewReader(pdfBody(1024)))
	require.NoError(t, err)
	assert.Equal(t, int64(1024), doc.Size)
}

func TestUploadService_LedgerFailureDiscardsBlob(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocs()
	docs.createErr = errors.New("db down")
	svc := NewUploadService(blobs, docs, 1024)

	_, err := svc.Upload(context.Background(), "f.pdf", "application/pdf", bytes.NewReader(pdfBody(100)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUploadRejected)
	assert.Zero(t, blobs.count())
}

func TestUploadService_DeleteByURL(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocs()
	svc := NewUploadService(blobs, docs, 1024)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "f.pdf", "application/pdf", bytes.NewReader(pdfBody(100)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByURL(ctx, doc.URL))
	assert.Zero(t, blobs.count())
	_, ok := docs.get(doc.URL)
	assert.False(t, ok)

	assert.NoError(t, svc.DeleteByURL(ctx, doc.URL), "deleting twice is harmless")
	assert.ErrorIs(t, svc.DeleteByURL(ctx, "https://elsewhere/doc.pdf"), ErrUnknownDocument)
}

func TestUploadService_DeleteByURLStorageError(t *testing.T) {
	blobs := newMemBlobs()
	svc := NewUploadService(blobs, newMemDocs(), 1024)
	doc, err := svc.Upload(context.Background(), "f.pdf", "application/pdf", bytes.NewReader(pdfBody(100)))
	require.NoError(t, err)

	blobs.deleteErr = errors.New("disk on fire")
	assert.Error(t, svc.DeleteByURL(context.Background(), doc.URL))
}

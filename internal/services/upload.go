package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"pdf-coview/internal/blob"
	"pdf-coview/internal/metrics"
	"pdf-coview/internal/middleware"
	"pdf-coview/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const DefaultMaxUploadSize = 10 << 20

var (
	// ErrUploadRejected wraps every reason an upload is refused.
	ErrUploadRejected = errors.New("upload rejected")

	ErrNotPDF          = fmt.Errorf("%w: only PDF files are allowed", ErrUploadRejected)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrUploadRejected)
	ErrEmptyFile       = fmt.Errorf("%w: file is empty", ErrUploadRejected)
	ErrUnknownDocument = errors.New("document url not issued by this store")
)

// UploadService validates PDFs, writes them to the blob store and records
// them in the document ledger.
type UploadService struct {
	blobs   blob.Store
	docs    DocumentRepository
	maxSize int64
}

// NewUploadService returns a service enforcing maxSize bytes per file.
func NewUploadService(blobs blob.Store, docs DocumentRepository, maxSize int64) *UploadService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadService{
		blobs:   blobs,
		docs:    docs,
		maxSize: maxSize,
	}
}

// MaxSize is the per-file limit in bytes.
func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// Upload stores one PDF. The declared content type must be application/pdf
// and the first bytes must sniff as PDF.
func (s *UploadService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.Document, error) {
	ctx, span := middleware.StartSpan(ctx, "UploadService.Upload",
		attribute.String("upload.filename", filename),
		attribute.String("upload.content_type", contentType),
	)
	defer span.End()

	doc, err := s.upload(ctx, filename, contentType, r)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		if errors.Is(err, ErrUploadRejected) {
			metrics.Uploads.WithLabelValues("rejected").Inc()
		} else {
			metrics.Uploads.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	metrics.Uploads.WithLabelValues("stored").Inc()
	span.SetAttributes(attribute.Int64("upload.size", doc.Size))
	log.Printf("  Stored %s (%d bytes) at %s", doc.Filename, doc.Size, doc.URL)
	return doc, nil
}

func (s *UploadService) upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.Document, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != models.ContentTypePDF {
		return nil, ErrNotPDF
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if http.DetectContentType(head) != models.ContentTypePDF {
		return nil, ErrNotPDF
	}

	key, err := blob.NewKey(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate blob key: %w", err)
	}

	// One extra byte tells an exact-limit file from an oversized one.
	written, err := s.blobs.Put(ctx, key, models.ContentTypePDF, io.LimitReader(br, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if written > s.maxSize {
		s.discard(ctx, key)
		return nil, ErrFileTooLarge
	}

	doc := &models.Document{
		Filename:    filename,
		ContentType: models.ContentTypePDF,
		Size:        written,
		StorageKey:  key,
		URL:         s.blobs.URL(key),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return doc, nil
}

func (s *UploadService) discard(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		log.Printf("⚠️  Failed to discard blob %s: %v", key, err)
	}
}

// DeleteByURL removes the blob behind url and its ledger row. A blob that
// is already gone is not an error.
func (s *UploadService) DeleteByURL(ctx context.Context, url string) error {
	ctx, span := middleware.StartSpan(ctx, "UploadService.DeleteByURL",
		attribute.String("document.url", url),
	)
	defer span.End()

	key, ok := s.blobs.KeyFromURL(url)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownDocument, url)
		middleware.AddSpanError(ctx, err)
		return err
	}

	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		middleware.AddSpanError(ctx, err)
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	if err := s.docs.DeleteByURL(ctx, url); err != nil {
		middleware.AddSpanError(ctx, err)
		return err
	}
	return nil
}

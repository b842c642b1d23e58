package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"pdf-coview/internal/models"
	"pdf-coview/internal/services"
	"pdf-coview/internal/services/collaboration"
)

// Uploader is what the upload endpoint needs from the upload service.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.Document, error)
	MaxSize() int64
}

// Handler handles HTTP requests
type Handler struct {
	uploader  Uploader
	wsHandler *collaboration.WebSocketHandler
}

func NewHandler(uploader Uploader, wsHandler *collaboration.WebSocketHandler) *Handler {
	return &Handler{
		uploader:  uploader,
		wsHandler: wsHandler,
	}
}

// Multipart fields accepted for the PDF, in order of preference.
var uploadFields = []string{"pdf", "file"}

// UploadDocument stores a PDF and answers with the URL viewers load it from.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing around a file right at the limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.uploader.MaxSize()+1<<20)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var (
		file   multipart.File
		header *multipart.FileHeader
	)
	for _, field := range uploadFields {
		if f, fh, err := r.FormFile(field); err == nil {
			file, header = f, fh
			break
		}
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > h.uploader.MaxSize() {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	doc, err := h.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, services.ErrUploadRejected):
			writeError(w, http.StatusBadRequest, uploadRejectionMessage(err))
		default:
			log.Printf("⚠️  Upload failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error uploading file")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": doc.URL})
}

func uploadRejectionMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNotPDF):
		return "Only PDF files are allowed"
	case errors.Is(err, services.ErrEmptyFile):
		return "File is empty"
	default:
		return "Invalid file"
	}
}

// HandleWebSocket upgrades to the co-viewing real-time channel.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleConnection(w, r)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package httpapi exposes the document pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/Lllllllleong/legaldocflow/internal/services"
	"github.com/rs/cors"
)

const multipartMemory = 32 << 20

// Processor runs the upload pipeline.
type Processor interface {
	Process(ctx context.Context, req *services.ProcessRequest) (*services.ProcessResult, error)
}

// Query reads committed records.
type Query interface {
	Get(ctx context.Context, slug string) (*models.Document, error)
	List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error)
}

// Handler serves the process, lookup and history endpoints.
type Handler struct {
	processor      Processor
	query          Query
	maxUploadBytes int64
}

// NewHandler returns a Handler. Request bodies larger than maxUploadBytes are
// rejected.
func NewHandler(processor Processor, query Query, maxUploadBytes int64) *Handler {
	return &Handler{processor: processor, query: query, maxUploadBytes: maxUploadBytes}
}

// WithCORS allows every origin and answers preflight requests without a body.
func WithCORS(h http.Handler) http.Handler {
	return cors.AllowAll().Handler(h)
}

// ProcessDocument accepts the multipart upload form and runs the pipeline.
func (h *Handler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "upload too large", err.Error())
			return
		}
		slog.Warn("Could not parse multipart form", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := readProcessRequest(r)
	if err != nil {
		slog.Error("Failed to read uploaded files", "error", err)
		WriteError(w, http.StatusBadRequest, "failed to read uploaded files", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := h.processor.Process(r.Context(), req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			WriteError(w, http.StatusBadRequest, verr.Error(), "")
			return
		}
		// The step failure is already logged inside Process.
		message := "failed to process document"
		var stepErr *services.StepError
		if errors.As(err, &stepErr) {
			message = stepErr.Message()
		}
		WriteError(w, http.StatusInternalServerError, message, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessResponse{
		Success:     true,
		Slug:        res.Slug,
		LandingURL:  res.LandingURL,
		QRCodeURL:   res.QRCodeURL,
		PDFFinalURL: res.FinalPDFURL,
		VideoURL:    res.VideoURL,
	})
}

func readProcessRequest(r *http.Request) (*services.ProcessRequest, error) {
	req := &services.ProcessRequest{
		ProcessNumber: r.FormValue("processo"),
		Title:         optional(r.FormValue("titulo")),
		AuthorName:    optional(r.FormValue("advogado_nome")),
		AppURL:        r.FormValue("appUrl"),
	}

	pdfBytes, _, err := readFile(r, "pdf")
	if err != nil {
		return nil, err
	}
	req.PDF = pdfBytes

	videoBytes, videoHeader, err := readFile(r, "video")
	if err != nil {
		return nil, err
	}
	req.Video = videoBytes
	if videoHeader != nil {
		req.VideoFilename = videoHeader.Filename
		req.VideoContentType = videoHeader.Header.Get("Content-Type")
	}
	return req, nil
}

// readFile returns nil data for a missing part.
func readFile(r *http.Request, field string) ([]byte, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", field, err)
	}
	return data, header, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// GetDocument returns one record. The slug comes from the {slug} path value
// or the slug query parameter.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	slug := r.PathValue("slug")
	if slug == "" {
		slug = r.URL.Query().Get("slug")
	}

	doc, err := h.query.Get(r.Context(), slug)
	switch {
	case errors.Is(err, services.ErrInvalidSlug):
		WriteError(w, http.StatusBadRequest, "invalid slug", "")
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, "document not found", "")
	case err != nil:
		slog.Error("Failed to load document", "slug", slug, "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to load document", err.Error())
	default:
		writeJSON(w, http.StatusOK, doc)
	}
}

// ListDocuments returns the history, newest first, optionally filtered by
// the q parameter.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	opts := models.ListOptions{ProcessNumberContains: strings.TrimSpace(r.URL.Query().Get("q"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		opts.Limit = limit
	}

	docs, err := h.query.List(r.Context(), opts)
	if err != nil {
		slog.Error("Failed to list documents", "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to list documents", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentListResponse{Documents: docs})
}

// Routes mounts every endpoint on one mux. When filesDir is set, stored
// objects are served under /files/.
func (h *Handler) Routes(filesDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", h.ProcessDocument)
	mux.HandleFunc("GET /documents", h.ListDocuments)
	mux.HandleFunc("GET /documents/{slug}", h.GetDocument)
	if filesDir != "" {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(filesDir))))
	}
	return WithCORS(mux)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// WriteError writes the JSON error body used by every endpoint.
func WriteError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, models.ErrorResponse{Error: message, Details: details})
}

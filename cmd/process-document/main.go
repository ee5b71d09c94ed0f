package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/legaldocflow/internal/gcp"
	"github.com/Lllllllleong/legaldocflow/internal/httpapi"
	"github.com/Lllllllleong/legaldocflow/internal/services"
)

var (
	handler *httpapi.Handler
	once    sync.Once
	initErr error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "ProcessDocument" is the entry point the upload form calls; the other two
	// back the landing viewer and the history page.
	functions.HTTP("ProcessDocument", withHandler(func(h *httpapi.Handler) http.HandlerFunc { return h.ProcessDocument }))
	functions.HTTP("GetDocument", withHandler(func(h *httpapi.Handler) http.HandlerFunc { return h.GetDocument }))
	functions.HTTP("ListDocuments", withHandler(func(h *httpapi.Handler) http.HandlerFunc { return h.ListDocuments }))
}

// main serves the registered functions. With FUNCTION_TARGET set only that
// function is served at /; otherwise each is served under its name.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Functions framework stopped", "error", err)
		os.Exit(1)
	}
}

// withHandler initializes the shared clients on first use and wraps the
// selected endpoint with CORS.
func withHandler(pick func(*httpapi.Handler) http.HandlerFunc) func(http.ResponseWriter, *http.Request) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			handler, initErr = newHandler(context.Background())
		})
		if initErr != nil {
			slog.Error("Critical: service initialization failed", "error", initErr)
			httpapi.WriteError(w, http.StatusInternalServerError, "failed to initialize service", initErr.Error())
			return
		}
		pick(handler)(w, r)
	})
	return httpapi.WithCORS(inner).ServeHTTP
}

func newHandler(ctx context.Context) (*httpapi.Handler, error) {
	config, err := services.LoadConfig()
	if err != nil {
		return nil, err
	}
	svc, err := services.New(ctx, config)
	if err != nil {
		return nil, err
	}
	return httpapi.NewHandler(svc.Processor, svc.Query, config.MaxUploadBytes), nil
}

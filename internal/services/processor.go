package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProcessorConfig tunes a DocumentProcessor.
type ProcessorConfig struct {
	MaxSlugAttempts  int
	QRSizePx         int
	CleanupOnFailure bool
}

// DefaultProcessorConfig returns the production defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MaxSlugAttempts: 10,
		QRSizePx:        200,
	}
}

// Dependencies are the collaborators a DocumentProcessor sequences. Events
// may be nil.
type Dependencies struct {
	Objects    ObjectStore
	Records    RecordStore
	Slugs      SlugSource
	QR         QREncoder
	Compositor Compositor
	Events     EventPublisher
}

// ProcessRequest is one validated submission.
type ProcessRequest struct {
	ProcessNumber    string
	Title            *string
	AuthorName       *string
	AppURL           string
	PDF              []byte
	Video            []byte
	VideoFilename    string
	VideoContentType string
}

// Validate reports every missing required field at once.
func (r *ProcessRequest) Validate() error {
	var missing []string
	if r.ProcessNumber == "" {
		missing = append(missing, "processo")
	}
	if r.AppURL == "" {
		missing = append(missing, "appUrl")
	}
	if len(r.PDF) == 0 {
		missing = append(missing, "pdf")
	}
	if len(r.Video) == 0 {
		missing = append(missing, "video")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ProcessResult holds the URLs of a committed document.
type ProcessResult struct {
	Slug        string
	LandingURL  string
	QRCodeURL   string
	FinalPDFURL string
	VideoURL    string
	Record      *models.Document
}

// DocumentProcessor runs the upload pipeline. It is the only writer of
// document records.
type DocumentProcessor struct {
	objects    ObjectStore
	records    RecordStore
	slugs      SlugSource
	qr         QREncoder
	compositor Compositor
	events     EventPublisher
	config     ProcessorConfig
}

// NewProcessor checks deps and fills zero config values with defaults.
func NewProcessor(config ProcessorConfig, deps Dependencies) (*DocumentProcessor, error) {
	if deps.Objects == nil || deps.Records == nil || deps.Slugs == nil || deps.QR == nil || deps.Compositor == nil {
		return nil, fmt.Errorf("processor dependencies are incomplete")
	}
	defaults := DefaultProcessorConfig()
	if config.MaxSlugAttempts <= 0 {
		config.MaxSlugAttempts = defaults.MaxSlugAttempts
	}
	if config.QRSizePx <= 0 {
		config.QRSizePx = defaults.QRSizePx
	}
	return &DocumentProcessor{
		objects:    deps.Objects,
		records:    deps.Records,
		slugs:      deps.Slugs,
		qr:         deps.QR,
		compositor: deps.Compositor,
		events:     deps.Events,
		config:     config,
	}, nil
}

// LandingURL is the public page for slug.
func LandingURL(appURL, slug string) string {
	return appURL + "/v/" + slug
}

// Process runs the pipeline for req. A slug taken by a concurrent run is
// retried once with a fresh slug; every other failure aborts the run.
func (p *DocumentProcessor) Process(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logCtx := slog.With("runId", runID, "processNumber", req.ProcessNumber)
	logCtx.Info("Processing new submission.", "pdfBytes", len(req.PDF), "videoBytes", len(req.Video))

	res, err := p.run(ctx, logCtx, req, runID)
	if isSlugCollision(err) {
		logCtx.Warn("Slug taken by a concurrent run, retrying with a fresh slug.", "error", err)
		res, err = p.run(ctx, logCtx, req, runID)
	}
	if err != nil {
		return nil, err
	}

	logCtx.Info("Submission processed.", "slug", res.Slug, "landingUrl", res.LandingURL)
	return res, nil
}

func isSlugCollision(err error) bool {
	return errors.Is(err, models.ErrDuplicateSlug) || errors.Is(err, models.ErrObjectExists)
}

type blobRef struct {
	bucket, path string
}

func (p *DocumentProcessor) run(ctx context.Context, logCtx *slog.Logger, req *ProcessRequest, runID string) (res *ProcessResult, err error) {
	var written []blobRef
	defer func() {
		if err != nil && p.config.CleanupOnFailure {
			p.compensate(ctx, logCtx, written)
		}
	}()

	slug, err := p.assignSlug(ctx, logCtx)
	if err != nil {
		return nil, p.handleError(logCtx, StepSlugAssigned, err)
	}
	logCtx = logCtx.With("slug", slug)
	logCtx.Info("Slug assigned.")

	// Neither upload needs the other's result.
	videoPath := slug + videoExtension(req.VideoFilename)
	originalPath := "original/" + slug + ".pdf"
	var videoURL, originalURL string

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		u, err := p.objects.Put(gctx, BucketVideos, videoPath, req.Video, videoContentType(req))
		if err != nil {
			return p.handleError(logCtx, StepVideoStored, err)
		}
		videoURL = u
		return nil
	})
	eg.Go(func() error {
		u, err := p.objects.Put(gctx, BucketPDFs, originalPath, req.PDF, "application/pdf")
		if err != nil {
			return p.handleError(logCtx, StepOriginalPDFStored, err)
		}
		originalURL = u
		return nil
	})
	uploadErr := eg.Wait()
	if videoURL != "" {
		written = append(written, blobRef{BucketVideos, videoPath})
	}
	if originalURL != "" {
		written = append(written, blobRef{BucketPDFs, originalPath})
	}
	if uploadErr != nil {
		return nil, uploadErr
	}
	logCtx.Info("Video and original PDF stored.", "videoUrl", videoURL, "originalPdfUrl", originalURL)

	landingURL := LandingURL(req.AppURL, slug)
	qrPNG, err := p.qr.Encode(ctx, landingURL, p.config.QRSizePx)
	if err != nil {
		return nil, p.handleError(logCtx, StepQRGenerated, err)
	}
	logCtx.Info("QR code generated.", "landingUrl", landingURL)

	qrPath := slug + ".png"
	qrURL, err := p.objects.Put(ctx, BucketQRCodes, qrPath, qrPNG, "image/png")
	if err != nil {
		return nil, p.handleError(logCtx, StepQRStored, err)
	}
	written = append(written, blobRef{BucketQRCodes, qrPath})
	logCtx.Info("QR code stored.", "qrCodeUrl", qrURL)

	finalPDF, err := p.compositor.StampQR(req.PDF, qrPNG)
	if err != nil {
		return nil, p.handleError(logCtx, StepPDFComposited, err)
	}
	logCtx.Info("QR code embedded in PDF.", "finalPdfBytes", len(finalPDF))

	finalPath := "final/" + slug + ".pdf"
	finalURL, err := p.objects.Put(ctx, BucketPDFs, finalPath, finalPDF, "application/pdf")
	if err != nil {
		return nil, p.handleError(logCtx, StepFinalPDFStored, err)
	}
	written = append(written, blobRef{BucketPDFs, finalPath})
	logCtx.Info("Final PDF stored.", "finalPdfUrl", finalURL)

	record := &models.Document{
		Slug:           slug,
		ProcessNumber:  req.ProcessNumber,
		Title:          req.Title,
		AuthorName:     req.AuthorName,
		VideoURL:       videoURL,
		OriginalPDFURL: originalURL,
		FinalPDFURL:    finalURL,
		QRCodeURL:      qrURL,
	}
	if !record.Complete() {
		return nil, p.handleError(logCtx, StepRecordPersisted, ErrIncompleteRecord)
	}
	if err := p.records.Insert(ctx, record); err != nil {
		return nil, p.handleError(logCtx, StepRecordPersisted, err)
	}
	logCtx.Info("Record persisted.")

	p.publish(ctx, logCtx, record, landingURL, runID)

	return &ProcessResult{
		Slug:        slug,
		LandingURL:  landingURL,
		QRCodeURL:   qrURL,
		FinalPDFURL: finalURL,
		VideoURL:    videoURL,
		Record:      record,
	}, nil
}

// assignSlug returns the first candidate with no existing record. The
// record store's unique constraint remains the real guarantee.
func (p *DocumentProcessor) assignSlug(ctx context.Context, logCtx *slog.Logger) (string, error) {
	for attempt := 1; attempt <= p.config.MaxSlugAttempts; attempt++ {
		candidate, err := p.slugs.Next()
		if err != nil {
			return "", err
		}
		_, err = p.records.FindBySlug(ctx, candidate)
		if errors.Is(err, models.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		logCtx.Debug("Slug already in use.", "candidate", candidate, "attempt", attempt)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrSlugExhausted, p.config.MaxSlugAttempts)
}

func (p *DocumentProcessor) publish(ctx context.Context, logCtx *slog.Logger, record *models.Document, landingURL, runID string) {
	if p.events == nil {
		return
	}
	err := p.events.DocumentProcessed(ctx, models.DocumentProcessedEvent{
		Slug:          record.Slug,
		ProcessNumber: record.ProcessNumber,
		LandingURL:    landingURL,
		FinalPDFURL:   record.FinalPDFURL,
		RunID:         runID,
	})
	if err != nil {
		logCtx.Warn("Failed to publish document.processed event.", "error", err)
	}
}

// compensate deletes the blobs of a failed run, newest first.
func (p *DocumentProcessor) compensate(ctx context.Context, logCtx *slog.Logger, written []blobRef) {
	ctx = context.WithoutCancel(ctx)
	for i := len(written) - 1; i >= 0; i-- {
		b := written[i]
		if err := p.objects.Delete(ctx, b.bucket, b.path); err != nil {
			logCtx.Error("Failed to delete orphaned blob.", "bucket", b.bucket, "path", b.path, "error", err)
			continue
		}
		logCtx.Info("Deleted orphaned blob.", "bucket", b.bucket, "path", b.path)
	}
}

func (p *DocumentProcessor) handleError(logCtx *slog.Logger, step Step, err error) error {
	stepErr := &StepError{Step: step, Err: err}
	logCtx.Error(stepErr.Message(), "step", string(step), "error", err)
	return stepErr
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

func videoExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

func videoContentType(req *ProcessRequest) string {
	if req.VideoContentType != "" {
		return req.VideoContentType
	}
	if ct := mime.TypeByExtension(videoExtension(req.VideoFilename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

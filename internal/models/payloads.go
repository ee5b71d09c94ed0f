package models

// These structs define the JSON bodies exchanged with the upload form, the
// landing viewer and the history page.

// ProcessResponse is returned by the process endpoint on success.
type ProcessResponse struct {
	Success     bool   `json:"success"`
	Slug        string `json:"slug"`
	LandingURL  string `json:"landingUrl"`
	QRCodeURL   string `json:"qrCodeUrl"`
	PDFFinalURL string `json:"pdfFinalUrl"`
	VideoURL    string `json:"videoUrl"`
}

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DocumentListResponse wraps the history listing.
type DocumentListResponse struct {
	Documents []*Document `json:"documents"`
}

// DocumentProcessedEvent is the data of the CloudEvent published after commit.
type DocumentProcessedEvent struct {
	Slug          string `json:"slug"`
	ProcessNumber string `json:"processNumber"`
	LandingURL    string `json:"landingUrl"`
	FinalPDFURL   string `json:"finalPdfUrl"`
	RunID         string `json:"runId"`
}

package models

import "time"

// Document is the record persisted once per completed submission. Its presence
// is the only signal that a pipeline run committed.
type Document struct {
	ID             uint      `firestore:"-" gorm:"primaryKey;autoIncrement" json:"-"`
	Slug           string    `firestore:"slug" gorm:"size:6;not null;uniqueIndex" json:"slug"`
	ProcessNumber  string    `firestore:"processNumber" gorm:"not null;index" json:"processNumber"`
	Title          *string   `firestore:"title" json:"title"`
	AuthorName     *string   `firestore:"authorName" json:"authorName"`
	VideoURL       string    `firestore:"videoUrl" gorm:"not null" json:"videoUrl"`
	OriginalPDFURL string    `firestore:"originalPdfUrl" gorm:"not null" json:"originalPdfUrl"`
	FinalPDFURL    string    `firestore:"finalPdfUrl" gorm:"not null" json:"finalPdfUrl"`
	QRCodeURL      string    `firestore:"qrCodeUrl" gorm:"not null" json:"qrCodeUrl"`
	CreatedAt      time.Time `firestore:"createdAt" gorm:"index" json:"createdAt"`
}

// Complete reports whether all four blob URLs are set.
func (d *Document) Complete() bool {
	return d.VideoURL != "" && d.OriginalPDFURL != "" && d.FinalPDFURL != "" && d.QRCodeURL != ""
}

// ListOptions narrows a history listing. The zero value lists everything.
type ListOptions struct {
	// ProcessNumberContains is matched case-insensitively against ProcessNumber.
	ProcessNumberContains string
	Limit                 int
}

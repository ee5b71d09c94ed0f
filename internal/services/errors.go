package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSlugExhausted is returned when no free slug was found within the
// configured number of attempts.
var ErrSlugExhausted = errors.New("no free slug found")

// ErrIncompleteRecord is returned when a record is missing one of its four
// object URLs and would point at nothing.
var ErrIncompleteRecord = errors.New("record is missing an object URL")

// ValidationError lists the required fields missing from a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Step names a pipeline state. A run that fails reports the state it was
// trying to reach.
type Step string

const (
	StepSlugAssigned      Step = "SlugAssigned"
	StepVideoStored       Step = "VideoStored"
	StepOriginalPDFStored Step = "OriginalPdfStored"
	StepQRGenerated       Step = "QrGenerated"
	StepQRStored          Step = "QrStored"
	StepPDFComposited     Step = "PdfComposited"
	StepFinalPDFStored    Step = "FinalPdfStored"
	StepRecordPersisted   Step = "RecordPersisted"
)

var stepMessages = map[Step]string{
	StepSlugAssigned:      "failed to assign slug",
	StepVideoStored:       "failed to upload video",
	StepOriginalPDFStored: "failed to upload original PDF",
	StepQRGenerated:       "failed to generate QR code",
	StepQRStored:          "failed to upload QR code",
	StepPDFComposited:     "failed to embed QR code in PDF",
	StepFinalPDFStored:    "failed to upload final PDF",
	StepRecordPersisted:   "failed to save record",
}

// StepError wraps the failure of one pipeline step.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Message is the short, user-facing description of the failed step.
func (e *StepError) Message() string {
	if msg, ok := stepMessages[e.Step]; ok {
		return msg
	}
	return "processing failed"
}

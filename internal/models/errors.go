package models

import "errors"

// Errors shared by the storage adapters and the pipeline.
var (
	ErrObjectExists  = errors.New("object already exists")
	ErrDuplicateSlug = errors.New("duplicate slug")
	ErrNotFound      = errors.New("document not found")
)

// Package storage adapts external object storage for invoice artifacts.
package storage

import (
	"context"
	"errors"
)

// Variant selects the disposition of a derived artifact URL.
type Variant string

const (
	// VariantPreview renders the document inline.
	VariantPreview Variant = "preview"
	// VariantDownload forces attachment disposition.
	VariantDownload Variant = "download"
)

// Store is the artifact store: opaque blob storage plus deterministic URL
// derivation from the artifact id. URLs are never stored anywhere.
type Store interface {
	// Upload stores the blob and returns an opaque stable artifact id
	// (not a URL). Provider failures surface as ErrUploadFailed; this
	// layer never retries.
	Upload(ctx context.Context, data []byte, name string) (string, error)

	// Delete removes the blob. A missing object counts as success;
	// provider failures surface as ErrDeleteFailed.
	Delete(ctx context.Context, artifactID string) error

	// URLFor derives a URL from the artifact id. Pure, no I/O.
	URLFor(artifactID string, variant Variant) string

	// ExtractID parses a previously issued URL back into the artifact id
	// embedded in its path. Returns "" when the shape is unrecognized.
	ExtractID(rawURL string) string
}

var (
	ErrUploadFailed = errors.New("artifact_upload_failed")
	ErrDeleteFailed = errors.New("artifact_delete_failed")
)

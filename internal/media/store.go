// Package media is the boundary to the remote asset host. Uploads return a
// durable URL plus an opaque delete key; deletes are idempotent from the
// caller's perspective.
package media

import (
	"context"
	"errors"
)

// Kind selects the asset host's resource class.
type Kind string

const (
	KindVideo Kind = "video"
	KindRaw   Kind = "raw" // pdf and other documents
	KindImage Kind = "image"
)

type Asset struct {
	URL       string `json:"url"`
	DeleteKey string `json:"delete_key"`
}

var (
	// ErrNotFound: the local staging file does not exist.
	ErrNotFound = errors.New("media: local file not found")
	// ErrTooLarge: the staging file exceeds the host's 100 MB ceiling.
	ErrTooLarge = errors.New("media: file exceeds 100MB limit")
	// ErrUploadFailed: all upload attempts exhausted.
	ErrUploadFailed = errors.New("media: upload failed")
)

type Store interface {
	// Upload sends the staging file at localPath to the host and removes it
	// afterwards, on success and on terminal failure alike.
	Upload(ctx context.Context, localPath string, kind Kind) (Asset, error)
	// Delete removes the remote asset. A missing remote object is not an error.
	Delete(ctx context.Context, deleteKey string, kind Kind) error
}

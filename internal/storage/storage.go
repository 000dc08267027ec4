package storage

import (
	"context"
	"io"
)

// Provider stores binary objects and hands back a public URL for them.
type Provider interface {
	UploadFile(ctx context.Context, data io.Reader, filename string, contentType string) (string, error)
	GetFileURL(filename string) (string, error)
}

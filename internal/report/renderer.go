package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// Renderer writes a document in one output format.
type Renderer interface {
	Render(doc *Document, w io.Writer) error
	Extension() string
}

// WriteFile renders doc into dir as "<stem><ext>" and returns the path.
// Partial files are removed on failure. Errors wrap domain.ErrRenderFailure.
func WriteFile(r Renderer, doc *Document, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %v: %w", err, domain.ErrRenderFailure)
	}

	path := filepath.Join(dir, doc.FileStem()+r.Extension())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %v: %w", path, err, domain.ErrRenderFailure)
	}

	if err := r.Render(doc, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to render %s: %v: %w", filepath.Base(path), err, domain.ErrRenderFailure)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %v: %w", filepath.Base(path), err, domain.ErrRenderFailure)
	}

	return path, nil
}

package charts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// Renderer turns a chart spec into an image file.
type Renderer interface {
	Render(ctx context.Context, spec Spec, path string) error
}

// Service writes report charts into a run folder.
type Service struct {
	renderer Renderer
	log      zerolog.Logger
}

// NewService creates a new charts service
func NewService(renderer Renderer, log zerolog.Logger) *Service {
	return &Service{
		renderer: renderer,
		log:      log.With().Str("service", "charts").Logger(),
	}
}

// RenderTo validates the spec and renders it to dir/filename, returning
// the image path. Any failure wraps domain.ErrRenderFailure.
func (s *Service) RenderTo(ctx context.Context, spec Spec, dir, filename string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", fmt.Errorf("invalid chart %s: %v: %w", filename, err, domain.ErrRenderFailure)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create chart directory: %v: %w", err, domain.ErrRenderFailure)
	}

	path := filepath.Join(dir, filename)
	start := time.Now()

	if err := s.renderer.Render(ctx, spec, path); err != nil {
		return "", fmt.Errorf("failed to render %s: %v: %w", filename, err, domain.ErrRenderFailure)
	}

	s.log.Info().
		Str("chart", filename).
		Str("kind", string(spec.Kind)).
		Dur("elapsed", time.Since(start)).
		Msg("Chart rendered")

	return path, nil
}

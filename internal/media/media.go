package media

import (
	"context"
	"io"

	"github.com/rossvale/modelfolio/internal/domain/portfolio"
)

// Uploader stores a portfolio asset and returns its derived delivery URLs.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (portfolio.ImageSet, error)
	Destroy(ctx context.Context, publicID string) error
}

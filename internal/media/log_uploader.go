package media

import (
	"context"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/rossvale/modelfolio/internal/domain/portfolio"
)

// LogUploader is the dev/test stand-in when CLOUDINARY_URL is unset. Files
// are drained and discarded.
type LogUploader struct{}

func NewLogUploader() *LogUploader { return &LogUploader{} }

func (u *LogUploader) Upload(ctx context.Context, r io.Reader, filename string) (portfolio.ImageSet, error) {
	n, err := io.Copy(io.Discard, r)

	if err != nil {
		return portfolio.ImageSet{}, err
	}

	publicID := "local/" + uuid.NewString()
	log.Printf("media.upload file=%s bytes=%d public_id=%s", filename, n, publicID)

	base := "https://media.invalid/" + publicID
	return portfolio.ImageSet{
		Original:  base,
		Thumbnail: base + "?w=400",
		Medium:    base + "?w=1000",
		PublicID:  publicID,
	}, nil
}

func (u *LogUploader) Destroy(ctx context.Context, publicID string) error {
	log.Printf("media.destroy public_id=%s", publicID)
	return nil
}

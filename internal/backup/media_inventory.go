package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rossvale/modelfolio/internal/domain/portfolio"
)

type PortfolioLister interface {
	List(ctx context.Context, filter portfolio.ListFilter) ([]portfolio.Item, error)
}

// RunMediaInventoryBackup snapshots the portfolio image URLs and public ids
// to S3. The media files live at the CDN; this inventory is what you need to
// re-link or re-import them after an account mishap.
func (r *Runner) RunMediaInventoryBackup(ctx context.Context, repo PortfolioLister) (string, error) {
	items, err := repo.List(ctx, portfolio.ListFilter{})

	if err != nil {
		return "", fmt.Errorf("list portfolio: %w", err)
	}

	type inventoryEntry struct {
		ID       string             `json:"id"`
		Title    string             `json:"title"`
		Category portfolio.Category `json:"category"`
		Images   portfolio.ImageSet `json:"images"`
	}

	entries := make([]inventoryEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, inventoryEntry{
			ID:       item.ID,
			Title:    item.Title,
			Category: item.Category,
			Images:   item.Images,
		})
	}

	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal inventory: %w", err)
	}

	key := fmt.Sprintf("media/inventory-%s.json", time.Now().UTC().Format("2006-01-02"))

	_, err = r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})

	if err != nil {
		return "", fmt.Errorf("upload inventory: %w", err)
	}

	r.logger.Info("media inventory uploaded", "bucket", r.cfg.Bucket, "key", key, "items", len(entries))
	return key, nil
}

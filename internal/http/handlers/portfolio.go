package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rossvale/modelfolio/internal/cache"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/domain/portfolio"
	"github.com/rossvale/modelfolio/internal/media"
	"github.com/rossvale/modelfolio/internal/observability"
)

const listCachePrefix = "portfolio:list:"

type PortfolioStore interface {
	Create(ctx context.Context, req portfolio.CreateItemRequest, images portfolio.ImageSet) (portfolio.Item, error)
	List(ctx context.Context, filter portfolio.ListFilter) ([]portfolio.Item, error)
	GetByID(ctx context.Context, id string) (portfolio.Item, error)
	Update(ctx context.Context, id string, req portfolio.UpdateItemRequest, images *portfolio.ImageSet) (portfolio.Item, error)
	Delete(ctx context.Context, id string) error
}

type PortfolioHandler struct {
	repo     PortfolioStore
	uploader media.Uploader
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewPortfolioHandler(repo PortfolioStore, uploader media.Uploader, c *cache.Cache, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		repo:     repo,
		uploader: uploader,
		cache:    c,
		logger:   logger,
	}
}

// ListItems is the public gallery endpoint. Responses are cached briefly and
// served with an ETag so returning visitors revalidate instead of re-pulling.
func (h *PortfolioHandler) ListItems(ctx *gin.Context) {
	filter := portfolio.ListFilter{}
	cacheKey := listCachePrefix + "all"

	if v := ctx.Query("category"); v != "" {
		cat := portfolio.Category(v)
		if !cat.IsValid() {
			RespondBadRequest(ctx, "Invalid category filter", nil)
			return
		}
		filter.Category = &cat
		cacheKey = listCachePrefix + v
	}

	if cached, ok := h.cache.Get(cacheKey); ok {
		RespondJSONWithETag(ctx, http.StatusOK, cached)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list portfolio")
		return
	}

	payload := gin.H{
		"items": items,
		"count": len(items),
	}

	h.cache.Set(cacheKey, payload)

	RespondJSONWithETag(ctx, http.StatusOK, payload)
}

func (h *PortfolioHandler) CreateItem(ctx *gin.Context) {
	var req portfolio.CreateItemRequest

	if !BindForm(ctx, &req) {
		return
	}

	file, err := ctx.FormFile("image")

	if err != nil {
		RespondBadRequest(ctx, "An image file is required", nil)
		return
	}

	src, err := file.Open()

	if err != nil {
		RespondBadRequest(ctx, "Could not read uploaded image", nil)
		return
	}
	defer src.Close()

	cctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	images, err := h.uploader.Upload(cctx, src, file.Filename)

	if err != nil {
		h.logger.Error("image upload failed", "filename", file.Filename, "error", err)
		observability.CaptureError(err)
		RespondInternal(ctx, "Could not upload image")
		return
	}

	item, err := h.repo.Create(cctx, req, images)

	if err != nil {
		// best effort: don't leave the uploaded asset orphaned
		if derr := h.uploader.Destroy(cctx, images.PublicID); derr != nil {
			h.logger.Error("orphan cleanup failed", "publicId", images.PublicID, "error", derr)
		}
		RespondInternal(ctx, "Could not create portfolio item")
		return
	}

	h.cache.DeletePrefix(listCachePrefix)

	ctx.JSON(http.StatusCreated, item)
}

func (h *PortfolioHandler) UpdateItem(ctx *gin.Context) {
	id := ctx.Param("id")

	var req portfolio.UpdateItemRequest

	if !BindForm(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	current, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			RespondNotFound(ctx, "Portfolio item not found")
			return
		}
		RespondInternal(ctx, "Could not update portfolio item")
		return
	}

	var newImages *portfolio.ImageSet

	if file, ferr := ctx.FormFile("image"); ferr == nil {
		src, oerr := file.Open()

		if oerr != nil {
			RespondBadRequest(ctx, "Could not read uploaded image", nil)
			return
		}
		defer src.Close()

		images, uerr := h.uploader.Upload(cctx, src, file.Filename)

		if uerr != nil {
			h.logger.Error("image upload failed", "filename", file.Filename, "error", uerr)
			observability.CaptureError(uerr)
			RespondInternal(ctx, "Could not upload image")
			return
		}

		newImages = &images
	}

	item, err := h.repo.Update(cctx, id, req, newImages)

	if err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			RespondNotFound(ctx, "Portfolio item not found")
			return
		}
		RespondInternal(ctx, "Could not update portfolio item")
		return
	}

	// old asset is unreferenced now
	if newImages != nil && current.Images.PublicID != "" {
		if derr := h.uploader.Destroy(cctx, current.Images.PublicID); derr != nil {
			h.logger.Error("old image cleanup failed", "publicId", current.Images.PublicID, "error", derr)
		}
	}

	h.cache.DeletePrefix(listCachePrefix)

	ctx.JSON(http.StatusOK, item)
}

func (h *PortfolioHandler) DeleteItem(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	item, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			RespondNotFound(ctx, "Portfolio item not found")
			return
		}
		RespondInternal(ctx, "Could not delete portfolio item")
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			RespondNotFound(ctx, "Portfolio item not found")
			return
		}
		RespondInternal(ctx, "Could not delete portfolio item")
		return
	}

	if item.Images.PublicID != "" {
		if derr := h.uploader.Destroy(cctx, item.Images.PublicID); derr != nil {
			h.logger.Error("image cleanup failed", "publicId", item.Images.PublicID, "error", derr)
			observability.CaptureError(derr)
		}
	}

	h.cache.DeletePrefix(listCachePrefix)

	ctx.Status(http.StatusNoContent)
}

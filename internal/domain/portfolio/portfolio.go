package portfolio

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryCampaign   Category = "campaign"
	CategoryEditorial  Category = "editorial"
	CategoryRunway     Category = "runway"
	CategoryCommercial Category = "commercial"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryCampaign, CategoryEditorial, CategoryRunway, CategoryCommercial:
		return true
	default:
		return false
	}
}

var ErrNotFound = errors.New("portfolio item not found")

// ImageSet holds the derived delivery URLs for one uploaded asset.
type ImageSet struct {
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
	Medium    string `json:"medium"`
	PublicID  string `json:"public_id"`
}

type Item struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	Photographer string    `json:"photographer,omitempty"`
	Client       string    `json:"client,omitempty"`
	Date         time.Time `json:"date"`
	Images       ImageSet  `json:"images"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateItemRequest carries the non-file fields of the multipart form.
type CreateItemRequest struct {
	Title        string    `form:"title" binding:"required,min=1,max=200"`
	Category     string    `form:"category" binding:"required,oneof=campaign editorial runway commercial"`
	Photographer string    `form:"photographer" binding:"omitempty,max=120"`
	Client       string    `form:"client" binding:"omitempty,max=120"`
	Date         time.Time `form:"date" time_format:"2006-01-02" binding:"omitempty"`
	Order        int       `form:"order" binding:"omitempty,min=0"`
}

type UpdateItemRequest struct {
	Title        string    `form:"title" binding:"required,min=1,max=200"`
	Category     string    `form:"category" binding:"required,oneof=campaign editorial runway commercial"`
	Photographer string    `form:"photographer" binding:"omitempty,max=120"`
	Client       string    `form:"client" binding:"omitempty,max=120"`
	Date         time.Time `form:"date" time_format:"2006-01-02" binding:"omitempty"`
	Order        int       `form:"order" binding:"omitempty,min=0"`
}

// ListFilter narrows the public gallery; nil category means all.
type ListFilter struct {
	Category *Category
}

func NewFromCreateRequest(req CreateItemRequest, images ImageSet) Item {
	now := time.Now().UTC()

	date := req.Date
	if date.IsZero() {
		date = now
	}

	return Item{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Category:     Category(req.Category),
		Photographer: req.Photographer,
		Client:       req.Client,
		Date:         date,
		Images:       images,
		Order:        req.Order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

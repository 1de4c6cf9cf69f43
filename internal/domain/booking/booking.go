package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

type Type string

const (
	TypeCommercial Type = "commercial"
	TypeEditorial  Type = "editorial"
	TypeCampaign   Type = "campaign"
	TypeRunway     Type = "runway"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeCommercial, TypeEditorial, TypeCampaign, TypeRunway:
		return true
	default:
		return false
	}
}

var ErrNotFound = errors.New("booking not found")

type Booking struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Type            Type      `json:"type"`
	Date            time.Time `json:"date"`
	Details         string    `json:"details,omitempty"`
	Status          Status    `json:"status"`
	CalendarEventID *string   `json:"calendarEventId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CreateBookingRequest struct {
	Name    string    `json:"name" binding:"required,min=2,max=120"`
	Email   string    `json:"email" binding:"required,email"`
	Phone   string    `json:"phone" binding:"omitempty,max=30"`
	Type    string    `json:"type" binding:"required,oneof=commercial editorial campaign runway"`
	Date    time.Time `json:"date" binding:"required"`
	Details string    `json:"details" binding:"omitempty,max=2000"`
}

type ListFilter struct {
	Status *string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled"`
}

// A factory to build a Booking from the incoming DTO. New bookings always
// start pending; only an authenticated admin action moves them.
func NewFromCreateRequest(req CreateBookingRequest) Booking {
	now := time.Now().UTC()

	return Booking{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Type:      Type(req.Type),
		Date:      req.Date,
		Details:   req.Details,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

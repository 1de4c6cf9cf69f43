package contact

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew     Status = "new"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied:
		return true
	default:
		return false
	}
}

var ErrNotFound = errors.New("contact message not found")

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateMessageRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,min=1,max=200"`
	Message string `json:"message" binding:"required,min=1,max=5000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new read replied"`
}

func NewFromCreateRequest(req CreateMessageRequest) Message {
	now := time.Now().UTC()

	return Message{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

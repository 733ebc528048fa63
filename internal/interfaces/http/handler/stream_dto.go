package handler

import (
	"time"

	"github.com/playhub/backend/internal/interfaces/http/dto"
)

// CreateStreamRequest represents the request body for a new stream
type CreateStreamRequest struct {
	Title        string     `json:"title" binding:"required,min=1,max=140"`
	Description  string     `json:"description" binding:"max=2000"`
	Category     string     `json:"category" binding:"max=50"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// UpdateStreamRequest represents the request body for stream changes
type UpdateStreamRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=1,max=140"`
	Description  *string    `json:"description" binding:"omitempty,max=2000"`
	Category     *string    `json:"category" binding:"omitempty,max=50"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// StreamListQuery holds query parameters for stream listings
type StreamListQuery struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=scheduled live ended"`
	Category   string `form:"category" binding:"max=50"`
	StreamerID string `form:"streamer_id" binding:"omitempty,uuid"`
}

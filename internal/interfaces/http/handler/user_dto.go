package handler

import "github.com/playhub/backend/internal/interfaces/http/dto"

// UpdateProfileRequest represents the request body for profile updates.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	Location    *string `json:"location" binding:"omitempty,max=100"`
	Website     *string `json:"website" binding:"omitempty,max=200"`
}

// UploadRequest asks for a presigned upload URL
type UploadRequest struct {
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp image/gif"`
	FileName    string `json:"file_name" binding:"omitempty,max=255"`
}

// ConfirmUploadRequest confirms a finished upload by its object key
type ConfirmUploadRequest struct {
	Key string `json:"key" binding:"required,max=512"`
}

// UserListQuery holds query parameters for user listings
type UserListQuery struct {
	dto.ListRequest
}

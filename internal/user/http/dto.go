package http

import (
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

// ListUsersRequest defines query parameters for listing users.
type ListUsersRequest struct {
	request.ListParams
	Search string `form:"q"`
	Role   string `form:"role" binding:"omitempty,oneof=USER ADMIN"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name personal_id created_at last_login_at"`
}

// Validate performs custom validation for ListUsersRequest.
func (r *ListUsersRequest) Validate() error {
	return nil
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID               string      `json:"id"`
	PersonalID       string      `json:"personal_id"`
	Name             string      `json:"name"`
	Base             string      `json:"base"`
	JobTitle         *string     `json:"job_title"`
	PhoneNumber      *string     `json:"phone_number"`
	Role             user.Role   `json:"role"`
	Status           user.Status `json:"status"`
	AvatarURL        *string     `json:"avatar_url"`
	CustomBackground *string     `json:"custom_background"`
	CreatedAt        time.Time   `json:"created_at"`
	LastLoginAt      *time.Time  `json:"last_login_at"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	var lastLoginAt *time.Time
	if u.LastLoginAt != nil {
		ll := *u.LastLoginAt
		lastLoginAt = &ll
	}

	return UserResponse{
		ID:               u.ID,
		PersonalID:       u.PersonalID,
		Name:             u.Name,
		Base:             u.Base,
		JobTitle:         u.JobTitle,
		PhoneNumber:      u.PhoneNumber,
		Role:             u.Role,
		Status:           u.Status,
		AvatarURL:        file.OptionalURL(u.AvatarFileID),
		CustomBackground: u.CustomBackground,
		CreatedAt:        u.CreatedAt,
		LastLoginAt:      lastLoginAt,
	}
}

// RegisterRequest defines the payload for user registration.
type RegisterRequest struct {
	PersonalID  string `json:"personal_id" binding:"required,max=32"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
	Name        string `json:"name" binding:"required,max=100"`
	Base        string `json:"base" binding:"max=100"`
	JobTitle    string `json:"job_title" binding:"max=100"`
	PhoneNumber string `json:"phone_number" binding:"max=32"`
}

// Validate performs custom validation for RegisterRequest.
func (r *RegisterRequest) Validate() error {
	return nil
}

// LoginRequest defines the payload for user login.
type LoginRequest struct {
	PersonalID string `json:"personal_id" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UpdateMeRequest defines fields a user may change on their own profile.
// Use pointers to distinguish between "field not sent" and "field sent as empty".
type UpdateMeRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=100"`
	Base             *string `json:"base" binding:"omitempty,max=100"`
	JobTitle         *string `json:"job_title" binding:"omitempty,max=100"`
	PhoneNumber      *string `json:"phone_number" binding:"omitempty,max=32"`
	Password         *string `json:"password" binding:"omitempty,min=6,max=72"`
	CustomBackground *string `json:"custom_background" binding:"omitempty,max=2048"`
}

// LoginResponse returns the token and user info.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// MeResponse returns a single user.
type MeResponse struct {
	User UserResponse `json:"user"`
}

package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "user not found")
	ErrPersonalIDUsed      = apperror.New(http.StatusConflict, "personal id already registered")
	ErrInvalidCredentials  = apperror.New(http.StatusUnauthorized, "invalid personal id or password")
	ErrNotApproved         = apperror.New(http.StatusForbidden, "account is pending approval or was rejected")
	ErrPersonalIDRequired  = apperror.New(http.StatusBadRequest, "personal id is required")
	ErrNameRequired        = apperror.New(http.StatusBadRequest, "name is required")
	ErrPasswordTooShort    = apperror.New(http.StatusBadRequest, "password is too short")
	ErrPasswordTooLong     = apperror.New(http.StatusBadRequest, "password is too long")
	ErrInvalidStatusChange = apperror.New(http.StatusConflict, "user status does not allow this action")
	ErrSelfModification    = apperror.New(http.StatusBadRequest, "admins cannot change their own role or delete themselves")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// User is an account. PersonalID is the login credential.
type User struct {
	ID               string
	PersonalID       string
	PasswordHash     string
	Name             string
	Base             string
	JobTitle         *string
	PhoneNumber      *string
	Role             Role
	Status           Status
	AvatarFileID     *string
	CustomBackground *string
	CreatedAt        time.Time
	LastLoginAt      *time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Filter defines filter options for listing users.
type Filter struct {
	Search    string // matches name or personal id
	Role      Role
	Status    Status
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

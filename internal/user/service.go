package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/feed"
)

const minPasswordLength = 6

// RegisterRequest carries the self-registration form.
type RegisterRequest struct {
	PersonalID  string
	Password    string
	Name        string
	Base        string
	JobTitle    string
	PhoneNumber string
}

// UpdateProfileRequest carries fields a user may change on their own account.
type UpdateProfileRequest struct {
	Name             *string
	Base             *string
	JobTitle         *string
	PhoneNumber      *string
	Password         *string
	AvatarFileID     *string
	CustomBackground *string
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, personalID, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
	SetStatus(ctx context.Context, id string, status Status) (*User, error)
	SetRole(ctx context.Context, actorID, id string, role Role) (*User, error)
	Delete(ctx context.Context, actorID, id string) error
}

type service struct {
	repo      Repository
	hasher    auth.PasswordHasher
	publisher feed.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher, publisher feed.Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a PENDING account with the USER role. An admin has to approve it
// before the owner can log in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	personalID := strings.TrimSpace(req.PersonalID)
	if personalID == "" {
		return nil, ErrPersonalIDRequired
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByPersonalID(ctx, personalID)
	if err == nil {
		return nil, ErrPersonalIDUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing personal id: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		PersonalID:   personalID,
		PasswordHash: hash,
		Name:         name,
		Base:         strings.TrimSpace(req.Base),
		JobTitle:     optional(req.JobTitle),
		PhoneNumber:  optional(req.PhoneNumber),
		Role:         RoleUser,
		Status:       StatusPending,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	s.publish(ctx, feed.ActionCreated, u.ID)
	return u, nil
}

func (s *service) Login(ctx context.Context, personalID, password string) (*User, error) {
	personalID = strings.TrimSpace(personalID)
	if personalID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByPersonalID(ctx, personalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by personal id: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.Status != StatusApproved {
		return nil, ErrNotApproved
	}

	// Best effort; a failed timestamp update never blocks a login.
	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		u.Name = name
	}
	if req.Base != nil {
		u.Base = strings.TrimSpace(*req.Base)
	}
	if req.JobTitle != nil {
		u.JobTitle = optional(*req.JobTitle)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = optional(*req.PhoneNumber)
	}
	if req.Password != nil {
		if err := checkPassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if req.AvatarFileID != nil {
		u.AvatarFileID = optional(*req.AvatarFileID)
	}
	if req.CustomBackground != nil {
		// Only admins can personalise their background.
		if !u.IsAdmin() {
			return nil, ErrPermissionDenied
		}
		u.CustomBackground = optional(*req.CustomBackground)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetStatus approves or rejects an account. Rejected accounts can be approved later.
func (s *service) SetStatus(ctx context.Context, id string, status Status) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusApproved:
		if u.Status == StatusApproved {
			return nil, ErrInvalidStatusChange
		}
	case StatusRejected:
		if u.Status != StatusPending {
			return nil, ErrInvalidStatusChange
		}
	default:
		return nil, ErrInvalidStatusChange
	}

	u.Status = status
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user status changed", zap.String("user_id", u.ID), zap.String("status", string(status)))
	s.publish(ctx, feed.ActionUpdated, u.ID)
	return u, nil
}

// SetRole promotes a user to ADMIN or revokes admin rights.
func (s *service) SetRole(ctx context.Context, actorID, id string, role Role) (*User, error) {
	if actorID == id {
		return nil, ErrSelfModification
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status != StatusApproved {
		return nil, ErrInvalidStatusChange
	}

	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", zap.String("user_id", u.ID), zap.String("role", string(role)))
	s.publish(ctx, feed.ActionUpdated, u.ID)
	return u, nil
}

// Delete removes the account permanently.
func (s *service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfModification
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	s.publish(ctx, feed.ActionDeleted, id)
	return nil
}

func (s *service) publish(ctx context.Context, action feed.Action, id string) {
	s.publisher.Publish(ctx, feed.Event{
		Resource: feed.ResourceUser,
		Action:   action,
		ID:       id,
		At:       s.now().UTC(),
	})
}

// optional maps blank strings to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func checkPassword(p string) error {
	switch {
	case len(p) < minPasswordLength:
		return ErrPasswordTooShort
	case len(p) > auth.MaxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}

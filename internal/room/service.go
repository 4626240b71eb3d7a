package room

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/feed"
)

type CreateRequest struct {
	Name         string
	Capacity     int
	Equipment    []string
	Description  string
	LocationType LocationType
	IsAvailable  bool
	IsRecorded   bool
}

type UpdateRequest struct {
	Name         *string
	Capacity     *int
	Equipment    *[]string
	Description  *string
	LocationType *LocationType
	IsAvailable  *bool
	IsRecorded   *bool
	ImageFileID  *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	All(ctx context.Context) ([]*Room, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Room, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	publisher feed.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher feed.Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if !req.LocationType.Valid() {
		return nil, ErrInvalidLocationType
	}

	rm := &Room{
		Name:         name,
		Capacity:     req.Capacity,
		Equipment:    cleanEquipment(req.Equipment),
		Description:  strings.TrimSpace(req.Description),
		LocationType: req.LocationType,
		IsAvailable:  req.IsAvailable,
		IsRecorded:   req.IsRecorded,
	}

	if err := s.repo.Create(ctx, rm); err != nil {
		return nil, err
	}

	s.logger.Info("room created", zap.String("room_id", rm.ID), zap.String("name", rm.Name))
	s.publish(ctx, feed.ActionCreated, rm.ID)
	return rm, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	return s.repo.List(ctx, filter)
}

// All returns every room ordered by name, for schedule read models.
func (s *service) All(ctx context.Context) ([]*Room, error) {
	rooms, _, err := s.repo.List(ctx, Filter{})
	return rooms, err
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		rm.Name = name
	}
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			return nil, ErrInvalidCapacity
		}
		rm.Capacity = *req.Capacity
	}
	if req.Equipment != nil {
		rm.Equipment = cleanEquipment(*req.Equipment)
	}
	if req.Description != nil {
		rm.Description = strings.TrimSpace(*req.Description)
	}
	if req.LocationType != nil {
		if !req.LocationType.Valid() {
			return nil, ErrInvalidLocationType
		}
		rm.LocationType = *req.LocationType
	}
	if req.IsAvailable != nil {
		rm.IsAvailable = *req.IsAvailable
	}
	if req.IsRecorded != nil {
		rm.IsRecorded = *req.IsRecorded
	}
	if req.ImageFileID != nil {
		rm.ImageFileID = req.ImageFileID
	}

	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, err
	}

	s.publish(ctx, feed.ActionUpdated, rm.ID)
	return rm, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("room deleted", zap.String("room_id", id))
	s.publish(ctx, feed.ActionDeleted, id)
	return nil
}

func (s *service) publish(ctx context.Context, action feed.Action, id string) {
	s.publisher.Publish(ctx, feed.Event{
		Resource: feed.ResourceRoom,
		Action:   action,
		ID:       id,
		At:       s.now().UTC(),
	})
}

// cleanEquipment trims entries, drops blanks and duplicates, keeping order.
func cleanEquipment(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

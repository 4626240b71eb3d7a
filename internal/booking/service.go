package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/feed"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/clock"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

// RoomLookup is the part of the room service bookings depend on.
type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
	All(ctx context.Context) ([]*room.Room, error)
}

// UserLookup resolves the requester's display name.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// FileRemover drops stored checkout videos that no booking references anymore.
type FileRemover interface {
	Delete(ctx context.Context, id string) error
}

// CreateRequest is submitted by Actor, who becomes the booking's owner.
type CreateRequest struct {
	Actor                Actor
	RoomID               string
	Date                 string // YYYY-MM-DD
	StartClock           string // HH:MM, blank = 00:00
	EndClock             string // HH:MM, blank = 23:59
	Title                string
	InvestigatorID       string
	SecondInvestigatorID string
	InterrogatedName     string
	Offenses             string
	Type                 *Type
	Description          string
	IsRecorded           bool
	PhoneNumber          string
}

type Options struct {
	Location  *time.Location
	PastGrace time.Duration
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string, actor Actor) (*Booking, error)
	List(ctx context.Context, filter Filter, actor Actor) ([]*Booking, int, error)

	Approve(ctx context.Context, id string, actor Actor) (*Booking, error)
	Reject(ctx context.Context, id string, actor Actor) (*Booking, error)
	Cancel(ctx context.Context, id string, actor Actor) (*Booking, error)
	Checkout(ctx context.Context, id, videoID string, actor Actor) (*Booking, error)
	CanCheckout(ctx context.Context, id string, actor Actor) error
	SetVideo(ctx context.Context, id string, videoID *string, actor Actor) (*Booking, error)

	Delete(ctx context.Context, id string, actor Actor) (PendingDelete, error)
	Undo(ctx context.Context, id string, actor Actor) error
	DeletePending(id string) bool

	Checkouts(ctx context.Context, actor Actor) ([]*Booking, error)
	Timeline(ctx context.Context, roomID, date string) (Timeline, error)
	Daily(ctx context.Context, date string) ([]RoomDay, error)
	Month(ctx context.Context, year int, month time.Month) ([]DayAvailability, error)
	RoomNames(ctx context.Context) (map[string]string, error)
	Location() *time.Location
	Now() time.Time
}

type service struct {
	repo      Repository
	rooms     RoomLookup
	users     UserLookup
	files     FileRemover
	publisher feed.Publisher
	clock     clock.Clock
	deferrer  *Deferrer
	loc       *time.Location
	grace     time.Duration
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	rooms RoomLookup,
	users UserLookup,
	files FileRemover,
	publisher feed.Publisher,
	clk clock.Clock,
	deferrer *Deferrer,
	opts Options,
	logger *zap.Logger,
) Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &service{
		repo:      repo,
		rooms:     rooms,
		users:     users,
		files:     files,
		publisher: publisher,
		clock:     clk,
		deferrer:  deferrer,
		loc:       loc,
		grace:     opts.PastGrace,
		logger:    logger,
	}
}

func required(field string) error {
	return apperror.New(http.StatusBadRequest, field+" is required")
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	w, err := WindowOnDate(req.Date, req.StartClock, req.EndClock, s.loc)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	investigatorID := strings.TrimSpace(req.InvestigatorID)
	interrogated := strings.TrimSpace(req.InterrogatedName)
	offenses := strings.TrimSpace(req.Offenses)
	switch {
	case title == "":
		return nil, required("title")
	case investigatorID == "":
		return nil, required("investigator_id")
	case interrogated == "":
		return nil, required("interrogated_name")
	case offenses == "":
		return nil, required("offenses")
	}
	if req.Type != nil && !req.Type.Valid() {
		return nil, ErrInvalidInput
	}

	rm, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !rm.IsAvailable {
		return nil, ErrRoomUnavailable
	}

	requester, err := s.users.GetByID(ctx, req.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}

	var existing []*Booking
	if w.Valid() {
		existing, _, err = s.repo.List(ctx, Filter{
			RoomID:    rm.ID,
			Statuses:  []Status{StatusPending, StatusApproved},
			StartTime: &w.Start,
			EndTime:   &w.End,
		})
		if err != nil {
			return nil, err
		}
	}
	now := s.clock.Now()
	if err := ValidateWindow(rm.ID, w, now, s.grace, existing); err != nil {
		return nil, err
	}
	if err := CheckHorizon(w, now, s.loc, req.Actor.IsAdmin); err != nil {
		return nil, err
	}

	b := &Booking{
		RoomID:               rm.ID,
		UserID:               requester.ID,
		UserName:             requester.Name,
		Title:                title,
		InvestigatorID:       investigatorID,
		SecondInvestigatorID: strings.TrimSpace(req.SecondInvestigatorID),
		InterrogatedName:     interrogated,
		Offenses:             offenses,
		Type:                 req.Type,
		Description:          strings.TrimSpace(req.Description),
		StartTime:            w.Start.UTC(),
		EndTime:              w.End.UTC(),
		Status:               StatusPending,
		IsRecorded:           req.IsRecorded || rm.IsRecorded,
	}
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		b.PhoneNumber = &phone
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_id", b.RoomID),
		zap.Time("start", b.StartTime),
		zap.Time("end", b.EndTime),
	)
	s.publish(ctx, feed.ActionCreated, b.ID)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string, actor Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !actor.owns(b) {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

// List returns bookings matching filter. Non-admins only ever see their own.
func (s *service) List(ctx context.Context, filter Filter, actor Actor) ([]*Booking, int, error) {
	if !actor.IsAdmin {
		filter.UserID = actor.UserID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Approve(ctx context.Context, id string, actor Actor) (*Booking, error) {
	return s.transition(ctx, id, StatusApproved, actor, nil)
}

func (s *service) Reject(ctx context.Context, id string, actor Actor) (*Booking, error) {
	return s.transition(ctx, id, StatusRejected, actor, nil)
}

func (s *service) Cancel(ctx context.Context, id string, actor Actor) (*Booking, error) {
	return s.transition(ctx, id, StatusCancelled, actor, nil)
}

// Checkout completes an in-progress booking and attaches the session video.
func (s *service) Checkout(ctx context.Context, id, videoID string, actor Actor) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, actor, &videoID)
}

// CanCheckout lets the HTTP layer refuse a checkout before it reads the video upload.
func (s *service) CanCheckout(ctx context.Context, id string, actor Actor) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.deferrer.IsPending(b.ID) {
		return ErrDeletePending
	}
	return CanCheckout(b, actor, s.clock.Now())
}

func (s *service) transition(ctx context.Context, id string, to Status, actor Actor, videoID *string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.deferrer.IsPending(b.ID) {
		return nil, ErrDeletePending
	}
	if err := CheckTransition(b, to, actor, s.clock.Now(), videoID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, StatusUpdate{
		ID:      b.ID,
		RoomID:  b.RoomID,
		From:    b.Status,
		To:      to,
		VideoID: videoID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", b.ID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	)
	s.publish(ctx, feed.ActionUpdated, b.ID)
	return updated, nil
}

// SetVideo replaces or clears the video of a completed booking. Admin only.
func (s *service) SetVideo(ctx context.Context, id string, videoID *string, actor Actor) (*Booking, error) {
	if !actor.IsAdmin {
		return nil, ErrPermissionDenied
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusCompleted {
		return nil, ErrInvalidTransition
	}
	if s.deferrer.IsPending(b.ID) {
		return nil, ErrDeletePending
	}

	updated, err := s.repo.SetVideo(ctx, id, videoID)
	if err != nil {
		return nil, err
	}
	if old := b.CheckoutVideoID; old != nil && (videoID == nil || *videoID != *old) {
		s.dropVideo(ctx, *old)
	}
	s.publish(ctx, feed.ActionUpdated, id)
	return updated, nil
}

// dropVideo is best effort; a leftover file is only logged.
func (s *service) dropVideo(ctx context.Context, fileID string) {
	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, file.ErrNotFound) {
		s.logger.Warn("failed to remove checkout video", zap.String("file_id", fileID), zap.Error(err))
	}
}

// Delete schedules the removal after the grace period and returns the pending handle.
// The row stays in storage until the timer fires; Undo aborts it.
func (s *service) Delete(ctx context.Context, id string, actor Actor) (PendingDelete, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PendingDelete{}, err
	}
	if err := CanDelete(b, actor); err != nil {
		return PendingDelete{}, err
	}

	pending, err := s.deferrer.Schedule(b.ID, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, b.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		if b.CheckoutVideoID != nil {
			s.dropVideo(ctx, *b.CheckoutVideoID)
		}
		s.publish(ctx, feed.ActionDeleted, b.ID)
		return nil
	})
	if err != nil {
		return PendingDelete{}, err
	}

	s.logger.Info("booking delete scheduled",
		zap.String("booking_id", b.ID),
		zap.String("actor", actor.UserID),
		zap.Time("fire_at", pending.FireAt),
	)
	s.publish(ctx, feed.ActionUpdated, b.ID)
	return pending, nil
}

func (s *service) Undo(ctx context.Context, id string, actor Actor) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNothingToUndo
		}
		return err
	}
	if err := CanDelete(b, actor); err != nil {
		return err
	}
	if err := s.deferrer.Cancel(b.ID); err != nil {
		return err
	}

	s.logger.Info("booking delete undone", zap.String("booking_id", b.ID), zap.String("actor", actor.UserID))
	s.publish(ctx, feed.ActionUpdated, b.ID)
	return nil
}

func (s *service) DeletePending(id string) bool {
	return s.deferrer.IsPending(id)
}

// Checkouts lists completed bookings that carry a video, most recent first.
func (s *service) Checkouts(ctx context.Context, actor Actor) ([]*Booking, error) {
	hasVideo := true
	bookings, _, err := s.List(ctx, Filter{
		Statuses:  []Status{StatusCompleted},
		HasVideo:  &hasVideo,
		SortBy:    "end_time",
		SortOrder: "DESC",
	}, actor)
	return bookings, err
}

func (s *service) Timeline(ctx context.Context, roomID, date string) (Timeline, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return Timeline{}, err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return Timeline{}, ErrRoomNotFound
		}
		return Timeline{}, err
	}

	bookings, err := s.occupyingBetween(ctx, roomID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return Timeline{}, err
	}
	return RoomTimeline(bookings, roomID, day.Format(dateLayout), s.loc), nil
}

func (s *service) Daily(ctx context.Context, date string) ([]RoomDay, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.occupyingBetween(ctx, "", day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	// The booking in progress right now may belong to another day than the one displayed.
	now := s.clock.Now()
	current, err := s.occupyingBetween(ctx, "", now, now.Add(time.Second))
	if err != nil {
		return nil, err
	}

	return DailySchedule(rooms, mergeBookings(bookings, current), day.Format(dateLayout), now, s.loc), nil
}

func (s *service) Month(ctx context.Context, year int, month time.Month) ([]DayAvailability, error) {
	if month < time.January || month > time.December || year < 1970 || year > 9999 {
		return nil, ErrInvalidInput
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	bookings, _, err := s.repo.List(ctx, Filter{
		Statuses:  []Status{StatusApproved},
		StartTime: &first,
		EndTime:   ptr(first.AddDate(0, 1, 0)),
	})
	if err != nil {
		return nil, err
	}

	return MonthAvailability(rooms, bookings, year, month, s.loc), nil
}

// RoomNames maps room ids to names for reports. Deleted rooms are simply absent.
func (s *service) RoomNames(ctx context.Context) (map[string]string, error) {
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rooms))
	for _, rm := range rooms {
		names[rm.ID] = rm.Name
	}
	return names, nil
}

func (s *service) Location() *time.Location {
	return s.loc
}

func (s *service) Now() time.Time {
	return s.clock.Now()
}

func (s *service) occupyingBetween(ctx context.Context, roomID string, from, to time.Time) ([]*Booking, error) {
	bookings, _, err := s.repo.List(ctx, Filter{
		RoomID:    roomID,
		Statuses:  []Status{StatusPending, StatusApproved},
		StartTime: &from,
		EndTime:   &to,
	})
	return bookings, err
}

func (s *service) publish(ctx context.Context, action feed.Action, id string) {
	s.publisher.Publish(ctx, feed.Event{
		Resource: feed.ResourceBooking,
		Action:   action,
		ID:       id,
		At:       s.clock.Now().UTC(),
	})
}

func mergeBookings(lists ...[]*Booking) []*Booking {
	seen := make(map[string]struct{})
	var out []*Booking
	for _, list := range lists {
		for _, b := range list {
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

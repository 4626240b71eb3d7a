package dashboard

import (
	"context"

	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

// Stats are the counters shown on the admin dashboard.
type Stats struct {
	ApprovedBookings int
	PendingBookings  int
	ApprovedUsers    int
	PendingUsers     int
}

type BookingLister interface {
	List(ctx context.Context, filter booking.Filter, actor booking.Actor) ([]*booking.Booking, int, error)
}

type UserLister interface {
	List(ctx context.Context, filter user.Filter) ([]*user.User, int, error)
}

type Service struct {
	bookings BookingLister
	users    UserLister
}

func NewService(bookings BookingLister, users UserLister) *Service {
	return &Service{bookings: bookings, users: users}
}

func (s *Service) Stats(ctx context.Context, actor booking.Actor) (Stats, error) {
	var st Stats
	var err error

	if st.ApprovedBookings, err = s.countBookings(ctx, booking.StatusApproved, actor); err != nil {
		return Stats{}, err
	}
	if st.PendingBookings, err = s.countBookings(ctx, booking.StatusPending, actor); err != nil {
		return Stats{}, err
	}
	if st.ApprovedUsers, err = s.countUsers(ctx, user.StatusApproved); err != nil {
		return Stats{}, err
	}
	if st.PendingUsers, err = s.countUsers(ctx, user.StatusPending); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Only the window total is needed, so a single row is fetched.
func (s *Service) countBookings(ctx context.Context, status booking.Status, actor booking.Actor) (int, error) {
	_, total, err := s.bookings.List(ctx, booking.Filter{
		Statuses: []booking.Status{status},
		Page:     1,
		PageSize: 1,
	}, actor)
	return total, err
}

func (s *Service) countUsers(ctx context.Context, status user.Status) (int, error) {
	_, total, err := s.users.List(ctx, user.Filter{Status: status, Page: 1, PageSize: 1})
	return total, err
}

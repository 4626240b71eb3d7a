package booking

import "time"

// Actor is the caller attempting a status change.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) owns(b *Booking) bool {
	return a.UserID != "" && a.UserID == b.UserID
}

// CheckTransition decides whether actor may move b to the status to at now.
// videoID is only consulted for checkout.
//
//	PENDING  -> APPROVED, REJECTED  admin
//	APPROVED -> CANCELLED           owner or admin
//	APPROVED -> COMPLETED           owner or admin, start <= now < end, video required
//
// Terminal bookings can only be deleted, see CanDelete.
func CheckTransition(b *Booking, to Status, actor Actor, now time.Time, videoID *string) error {
	switch {
	case b.Status == StatusPending && (to == StatusApproved || to == StatusRejected):
		if !actor.IsAdmin {
			return ErrPermissionDenied
		}
		return nil

	case b.Status == StatusApproved && to == StatusCancelled:
		if !actor.IsAdmin && !actor.owns(b) {
			return ErrPermissionDenied
		}
		return nil

	case to == StatusCompleted:
		if err := CanCheckout(b, actor, now); err != nil {
			return err
		}
		if videoID == nil || *videoID == "" {
			return ErrVideoRequired
		}
		return nil
	}

	return ErrInvalidTransition
}

// CanCheckout checks everything about a checkout except the video itself, so an upload
// can be refused before it is read.
func CanCheckout(b *Booking, actor Actor, now time.Time) error {
	if b.Status != StatusApproved {
		return ErrInvalidTransition
	}
	if !actor.IsAdmin && !actor.owns(b) {
		return ErrPermissionDenied
	}
	if now.Before(b.StartTime) || !now.Before(b.EndTime) {
		return ErrCheckoutWindow
	}
	return nil
}

// CanDelete reports whether actor may permanently remove b. Admins may delete any status;
// owners only clear their own REJECTED or CANCELLED history.
func CanDelete(b *Booking, actor Actor) error {
	if actor.IsAdmin {
		return nil
	}
	if !actor.owns(b) {
		return ErrPermissionDenied
	}
	if b.Status != StatusRejected && b.Status != StatusCancelled {
		return ErrPermissionDenied
	}
	return nil
}

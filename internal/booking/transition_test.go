package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	start, end := at("2024-01-10", "09:00"), at("2024-01-10", "10:00")
	video := "video-1"
	empty := ""

	admin := Actor{UserID: "admin", IsAdmin: true}
	owner := Actor{UserID: "u1"}
	stranger := Actor{UserID: "u2"}

	tests := []struct {
		name  string
		from  Status
		to    Status
		actor Actor
		now   string
		video *string
		want  error
	}{
		{"admin approves pending", StatusPending, StatusApproved, admin, "08:00", nil, nil},
		{"admin rejects pending", StatusPending, StatusRejected, admin, "08:00", nil, nil},
		{"owner cannot approve", StatusPending, StatusApproved, owner, "08:00", nil, ErrPermissionDenied},
		{"pending cannot be cancelled", StatusPending, StatusCancelled, owner, "08:00", nil, ErrInvalidTransition},
		{"owner cancels approved", StatusApproved, StatusCancelled, owner, "08:00", nil, nil},
		{"admin cancels approved", StatusApproved, StatusCancelled, admin, "08:00", nil, nil},
		{"stranger cannot cancel", StatusApproved, StatusCancelled, stranger, "08:00", nil, ErrPermissionDenied},
		{"approved cannot be re-approved", StatusApproved, StatusApproved, admin, "08:00", nil, ErrInvalidTransition},
		{"checkout during window", StatusApproved, StatusCompleted, owner, "09:30", &video, nil},
		{"checkout at start", StatusApproved, StatusCompleted, owner, "09:00", &video, nil},
		{"checkout before start", StatusApproved, StatusCompleted, owner, "08:59", &video, ErrCheckoutWindow},
		{"checkout at end", StatusApproved, StatusCompleted, owner, "10:00", &video, ErrCheckoutWindow},
		{"checkout without video", StatusApproved, StatusCompleted, owner, "09:30", nil, ErrVideoRequired},
		{"checkout with blank video", StatusApproved, StatusCompleted, owner, "09:30", &empty, ErrVideoRequired},
		{"stranger cannot checkout", StatusApproved, StatusCompleted, stranger, "09:30", &video, ErrPermissionDenied},
		{"pending cannot complete", StatusPending, StatusCompleted, admin, "09:30", &video, ErrInvalidTransition},
		{"rejected is terminal", StatusRejected, StatusApproved, admin, "08:00", nil, ErrInvalidTransition},
		{"cancelled is terminal", StatusCancelled, StatusApproved, admin, "08:00", nil, ErrInvalidTransition},
		{"completed is terminal", StatusCompleted, StatusCancelled, admin, "09:30", nil, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fixture("b", "r1", tt.from, start, end)
			err := CheckTransition(b, tt.to, tt.actor, at("2024-01-10", tt.now), tt.video)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

}

func TestCanDelete(t *testing.T) {
	adminActor := Actor{UserID: "admin", IsAdmin: true}
	owner := Actor{UserID: "u1"}
	stranger := Actor{UserID: "u2"}

	tests := []struct {
		status Status
		actor  Actor
		want   error
	}{
		{StatusPending, owner, ErrPermissionDenied},
		{StatusApproved, owner, ErrPermissionDenied},
		{StatusRejected, owner, nil},
		{StatusCancelled, owner, nil},
		{StatusCompleted, owner, ErrPermissionDenied},
		{StatusPending, adminActor, nil},
		{StatusApproved, adminActor, nil},
		{StatusRejected, adminActor, nil},
		{StatusCancelled, adminActor, nil},
		{StatusCompleted, adminActor, nil},
		{StatusCancelled, stranger, ErrPermissionDenied},
		{StatusRejected, stranger, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+tt.actor.UserID, func(t *testing.T) {
			b := fixture("b", "r1", tt.status, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
			err := CanDelete(b, tt.actor)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCanCheckout(t *testing.T) {
	start, end := at("2024-01-10", "09:00"), at("2024-01-10", "10:00")

	assert.NoError(t, CanCheckout(fixture("b", "r1", StatusApproved, start, end), Actor{UserID: "u1"}, at("2024-01-10", "09:30")))
	assert.ErrorIs(t, CanCheckout(fixture("b", "r1", StatusApproved, start, end), Actor{UserID: "u1"}, at("2024-01-10", "10:00")), ErrCheckoutWindow)
	assert.ErrorIs(t, CanCheckout(fixture("b", "r1", StatusPending, start, end), Actor{UserID: "u1"}, at("2024-01-10", "09:30")), ErrInvalidTransition)
	assert.ErrorIs(t, CanCheckout(fixture("b", "r1", StatusApproved, start, end), Actor{UserID: "u2"}, at("2024-01-10", "09:30")), ErrPermissionDenied)
}

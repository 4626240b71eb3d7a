package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/feed"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/clock"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

type memRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*Booking
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*Booking)}
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("booking-%d", r.seq)
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, f Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.RoomID != "" && b.RoomID != f.RoomID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
			continue
		}
		if f.StartTime != nil && !b.EndTime.After(*f.StartTime) {
			continue
		}
		if f.EndTime != nil && !b.StartTime.Before(*f.EndTime) {
			continue
		}
		if f.HasVideo != nil && (b.CheckoutVideoID != nil) != *f.HasVideo {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.SortBy == "end_time" && f.SortOrder == "DESC" {
			return out[i].EndTime.After(out[j].EndTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, len(out), nil
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memRepo) UpdateStatus(_ context.Context, u StatusUpdate) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != u.From {
		return nil, ErrInvalidTransition
	}
	if u.To == StatusApproved {
		for _, o := range r.bookings {
			if o.ID != b.ID && o.RoomID == b.RoomID && o.Status == StatusApproved && o.Window().Overlaps(b.Window()) {
				return nil, ErrApprovalConflict
			}
		}
	}
	b.Status = u.To
	if u.VideoID != nil {
		b.CheckoutVideoID = u.VideoID
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) SetVideo(_ context.Context, id string, videoID *string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.CheckoutVideoID = videoID
	cp := *b
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memRepo) put(b *Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
}

type stubRooms map[string]*room.Room

func (s stubRooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	rm, ok := s[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return rm, nil
}

func (s stubRooms) All(context.Context) ([]*room.Room, error) {
	out := make([]*room.Room, 0, len(s))
	for _, rm := range s {
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type stubUsers struct{}

func (stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, Name: "Name of " + id}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []feed.Event
}

func (r *recorder) Publish(_ context.Context, e feed.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) actions() []feed.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]feed.Action, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type memFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *memFiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *memFiles) removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type testEnv struct {
	svc   Service
	repo  *memRepo
	files *memFiles
	clock *clock.Manual
	rec   *recorder
}

var (
	admin = Actor{UserID: "admin", IsAdmin: true}
	owner = Actor{UserID: "u1"}
)

func newTestEnv(t *testing.T, deleteGrace time.Duration) *testEnv {
	t.Helper()
	repo := newMemRepo()
	rooms := stubRooms{
		"r1": {ID: "r1", Name: "Room A", IsAvailable: true},
		"r2": {ID: "r2", Name: "Room B", IsAvailable: true, IsRecorded: true},
		"r3": {ID: "r3", Name: "Room C", IsAvailable: false},
	}
	clk := clock.NewManual(at("2024-01-09", "12:00"))
	rec := &recorder{}
	files := &memFiles{}
	deferrer := NewDeferrer(deleteGrace, clk, zap.NewNop())
	t.Cleanup(func() { deferrer.Shutdown() })

	svc := NewService(repo, rooms, stubUsers{}, files, rec, clk, deferrer, Options{Location: testLoc, PastGrace: 5 * time.Minute}, zap.NewNop())
	return &testEnv{svc: svc, repo: repo, files: files, clock: clk, rec: rec}
}

func createReq(roomID, date, start, end string) CreateRequest {
	return CreateRequest{
		Actor:            owner,
		RoomID:           roomID,
		Date:             date,
		StartClock:       start,
		EndClock:         end,
		Title:            "Dana Levi",
		InvestigatorID:   "12345",
		InterrogatedName: "John",
		Offenses:         "theft",
	}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()

	b, err := env.svc.Create(ctx, createReq("r1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Name of u1", b.UserName)
	assert.True(t, b.StartTime.Equal(at("2024-01-10", "09:00")))
	assert.False(t, b.IsRecorded)
	assert.Equal(t, []feed.Action{feed.ActionCreated}, env.rec.actions())

	// Pending requests already occupy the slot.
	_, err = env.svc.Create(ctx, createReq("r1", "2024-01-10", "09:30", "10:30"))
	assert.ErrorIs(t, err, ErrTimeConflict)

	_, err = env.svc.Create(ctx, createReq("r1", "2024-01-10", "10:00", "11:00"))
	assert.NoError(t, err)

	recorded, err := env.svc.Create(ctx, createReq("r2", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	assert.True(t, recorded.IsRecorded)
}

func TestCreateBookingHorizon(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()

	env.clock.Set(at("2024-01-10", "07:59"))
	_, err := env.svc.Create(ctx, createReq("r1", "2024-01-11", "09:00", "10:00"))
	assert.ErrorIs(t, err, ErrBeyondHorizon)

	_, err = env.svc.Create(ctx, createReq("r1", "2024-01-10", "18:00", "19:00"))
	assert.NoError(t, err)

	asAdmin := createReq("r1", "2024-03-01", "09:00", "10:00")
	asAdmin.Actor = admin
	_, err = env.svc.Create(ctx, asAdmin)
	assert.NoError(t, err)

	env.clock.Set(at("2024-01-10", "08:00"))
	_, err = env.svc.Create(ctx, createReq("r1", "2024-01-11", "09:00", "10:00"))
	assert.NoError(t, err)

	_, err = env.svc.Create(ctx, createReq("r1", "2024-03-01", "11:00", "12:00"))
	assert.ErrorIs(t, err, ErrBeyondHorizon)
}

func TestCreateBookingRejections(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()

	missingTitle := createReq("r1", "2024-01-10", "09:00", "10:00")
	missingTitle.Title = " "
	badType := createReq("r1", "2024-01-10", "09:00", "10:00")
	other := Type("OTHER")
	badType.Type = &other

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown room", createReq("nope", "2024-01-10", "09:00", "10:00"), ErrRoomNotFound},
		{"unavailable room", createReq("r3", "2024-01-10", "09:00", "10:00"), ErrRoomUnavailable},
		{"reversed", createReq("r1", "2024-01-10", "10:00", "09:00"), ErrInvalidTimeRange},
		{"past", createReq("r1", "2024-01-08", "09:00", "10:00"), ErrStartTimePast},
		{"bad date", createReq("r1", "tomorrow", "09:00", "10:00"), ErrInvalidInput},
		{"bad type", badType, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.svc.Create(ctx, missingTitle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Empty(t, env.rec.actions())
}

func TestApprovalArbitration(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()

	// Two overlapping PENDING requests can only exist if written directly, e.g. by
	// concurrent submissions; approving one must block the other.
	env.repo.put(fixture("a", "r1", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))
	env.repo.put(fixture("b", "r1", StatusPending, at("2024-01-10", "09:30"), at("2024-01-10", "10:30")))

	_, err := env.svc.Approve(ctx, "a", admin)
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, "b", admin)
	assert.ErrorIs(t, err, ErrApprovalConflict)

	rejected, err := env.svc.Reject(ctx, "b", admin)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
}

func TestApproveRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	env.repo.put(fixture("a", "r1", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))

	_, err := env.svc.Approve(context.Background(), "a", owner)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	env.repo.put(fixture("a", "r1", StatusApproved, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))

	_, err := env.svc.Checkout(ctx, "a", "video-1", owner)
	assert.ErrorIs(t, err, ErrCheckoutWindow)

	env.clock.Set(at("2024-01-10", "09:45"))
	b, err := env.svc.Checkout(ctx, "a", "video-1", owner)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)
	require.NotNil(t, b.CheckoutVideoID)
	assert.Equal(t, "video-1", *b.CheckoutVideoID)

	gallery, err := env.svc.Checkouts(ctx, admin)
	require.NoError(t, err)
	require.Len(t, gallery, 1)

	_, err = env.svc.SetVideo(ctx, "a", nil, owner)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	cleared, err := env.svc.SetVideo(ctx, "a", nil, admin)
	require.NoError(t, err)
	assert.Nil(t, cleared.CheckoutVideoID)

	gallery, err = env.svc.Checkouts(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, gallery)
	assert.Equal(t, []string{"video-1"}, env.files.removed())
}

func TestCheckoutPrecheck(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	env.repo.put(fixture("a", "r1", StatusApproved, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))
	env.repo.put(fixture("p", "r1", StatusPending, at("2024-01-10", "11:00"), at("2024-01-10", "12:00")))

	assert.ErrorIs(t, env.svc.CanCheckout(ctx, "a", owner), ErrCheckoutWindow)

	env.clock.Set(at("2024-01-10", "09:15"))
	assert.NoError(t, env.svc.CanCheckout(ctx, "a", owner))
	assert.ErrorIs(t, env.svc.CanCheckout(ctx, "a", Actor{UserID: "u2"}), ErrPermissionDenied)
	assert.ErrorIs(t, env.svc.CanCheckout(ctx, "p", owner), ErrInvalidTransition)
	assert.ErrorIs(t, env.svc.CanCheckout(ctx, "missing", owner), ErrNotFound)
}

func TestReplaceVideoRemovesPreviousFile(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	old := "video-old"
	done := fixture("done", "r1", StatusCompleted, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	done.CheckoutVideoID = &old
	env.repo.put(done)

	replacement := "video-new"
	b, err := env.svc.SetVideo(ctx, "done", &replacement, admin)
	require.NoError(t, err)
	assert.Equal(t, &replacement, b.CheckoutVideoID)
	assert.Equal(t, []string{"video-old"}, env.files.removed())

	// Setting the same video again keeps it.
	_, err = env.svc.SetVideo(ctx, "done", &replacement, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"video-old"}, env.files.removed())
}

func TestCompletedDoesNotBlockNewRequests(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	video := "v"
	done := fixture("done", "r1", StatusCompleted, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	done.CheckoutVideoID = &video
	env.repo.put(done)

	_, err := env.svc.Create(context.Background(), createReq("r1", "2024-01-10", "09:00", "10:00"))
	assert.NoError(t, err)
}

func TestListScopesToCaller(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	mine := fixture("mine", "r1", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	theirs := fixture("theirs", "r2", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	theirs.UserID = "u2"
	env.repo.put(mine)
	env.repo.put(theirs)

	list, total, err := env.svc.List(ctx, Filter{UserID: "u2"}, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "mine", list[0].ID)

	_, total, err = env.svc.List(ctx, Filter{}, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = env.svc.GetByID(ctx, "theirs", owner)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteAndUndo(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	env.repo.put(fixture("a", "r1", StatusApproved, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))

	_, err := env.svc.Delete(ctx, "a", Actor{UserID: "u2"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	p, err := env.svc.Delete(ctx, "a", admin)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Token)
	assert.True(t, p.FireAt.Equal(at("2024-01-09", "13:00")))
	assert.True(t, env.svc.DeletePending("a"))

	_, err = env.svc.Delete(ctx, "a", admin)
	assert.ErrorIs(t, err, ErrDeletePending)

	// Status changes wait until the delete is resolved.
	_, err = env.svc.Cancel(ctx, "a", owner)
	assert.ErrorIs(t, err, ErrDeletePending)

	require.NoError(t, env.svc.Undo(ctx, "a", admin))
	assert.False(t, env.svc.DeletePending("a"))
	assert.ErrorIs(t, env.svc.Undo(ctx, "a", admin), ErrNothingToUndo)

	_, err = env.repo.GetByID(ctx, "a")
	assert.NoError(t, err)
}

func TestOwnerDeletesOnlyHistory(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	video := "video-1"
	done := fixture("done", "r1", StatusCompleted, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	done.CheckoutVideoID = &video
	env.repo.put(done)
	env.repo.put(fixture("pending", "r1", StatusPending, at("2024-01-10", "11:00"), at("2024-01-10", "12:00")))
	env.repo.put(fixture("cancelled", "r1", StatusCancelled, at("2024-01-10", "13:00"), at("2024-01-10", "14:00")))
	env.repo.put(fixture("rejected", "r1", StatusRejected, at("2024-01-10", "15:00"), at("2024-01-10", "16:00")))

	_, err := env.svc.Delete(ctx, "done", owner)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.svc.Delete(ctx, "pending", owner)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.svc.Delete(ctx, "cancelled", owner)
	assert.NoError(t, err)
	_, err = env.svc.Delete(ctx, "rejected", owner)
	assert.NoError(t, err)
	require.NoError(t, env.svc.Undo(ctx, "rejected", owner))

	assert.False(t, env.svc.DeletePending("done"))
	assert.False(t, env.svc.DeletePending("pending"))
	assert.True(t, env.svc.DeletePending("cancelled"))
}

func TestDeleteRemovesCheckoutVideo(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond)
	ctx := context.Background()
	video := "video-1"
	done := fixture("done", "r1", StatusCompleted, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	done.CheckoutVideoID = &video
	env.repo.put(done)

	_, err := env.svc.Delete(ctx, "done", admin)
	require.NoError(t, err)

	_, err = env.svc.SetVideo(ctx, "done", nil, admin)
	assert.ErrorIs(t, err, ErrDeletePending)

	assert.Eventually(t, func() bool {
		removed := env.files.removed()
		return len(removed) == 1 && removed[0] == "video-1"
	}, time.Second, 5*time.Millisecond)
}

func TestDeleteCommitsAfterGrace(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond)
	ctx := context.Background()
	env.repo.put(fixture("a", "r1", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))

	_, err := env.svc.Delete(ctx, "a", admin)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := env.repo.GetByID(ctx, "a")
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		actions := env.rec.actions()
		return len(actions) > 0 && actions[len(actions)-1] == feed.ActionDeleted
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, env.svc.Undo(ctx, "a", admin), ErrNothingToUndo)

	// The slot is free again.
	_, err = env.svc.Create(ctx, createReq("r1", "2024-01-10", "09:00", "10:00"))
	assert.NoError(t, err)
}

func TestScheduleViews(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	env.repo.put(fixture("a", "r1", StatusApproved, at("2024-01-10", "08:00"), at("2024-01-10", "09:30")))
	env.repo.put(fixture("p", "r1", StatusPending, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))
	env.repo.put(fixture("x", "r2", StatusCancelled, at("2024-01-10", "09:00"), at("2024-01-10", "10:00")))

	tl, err := env.svc.Timeline(ctx, "r1", "2024-01-10")
	require.NoError(t, err)
	assert.Len(t, tl.Slots[9].Occupants, 2)
	assert.Empty(t, tl.Slots[10].Occupants)

	_, err = env.svc.Timeline(ctx, "nope", "2024-01-10")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	env.clock.Set(at("2024-01-10", "08:30"))
	days, err := env.svc.Daily(ctx, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "r1", days[0].Room.ID)
	require.NotNil(t, days[0].Current)
	assert.Equal(t, "a", days[0].Current.ID)
	assert.Equal(t, 1, ScheduleAvailability(days))

	month, err := env.svc.Month(ctx, 2024, time.January)
	require.NoError(t, err)
	require.Len(t, month, 31)
	assert.Equal(t, 1, month[9].Available)
	assert.Equal(t, 2, month[10].Available)

	_, err = env.svc.Month(ctx, 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

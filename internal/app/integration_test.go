package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/app"
	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	bookingHttp "github.com/nekogravitycat/smartroom-backend/internal/booking/http"
	"github.com/nekogravitycat/smartroom-backend/internal/db"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/clock"
	roomHttp "github.com/nekogravitycat/smartroom-backend/internal/room/http"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

var (
	testRouter *gin.Engine
	testPool   *pgxpool.Pool
	jwtManager *auth.JWTManager
	testClock  *clock.Manual
)

// TestMain runs against a disposable database named by TEST_DB_DSN and is skipped without one.
func TestMain(m *testing.M) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		log.Printf("TEST_DB_DSN is not set, skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	if err := db.Migrate(ctx, testPool, zap.NewNop()); err != nil {
		log.Fatalf("Unable to migrate database: %v\n", err)
	}

	storageDir, err := os.MkdirTemp("", "smartroom-test-*")
	if err != nil {
		log.Fatalf("Unable to create storage dir: %v\n", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	testClock = clock.NewManual(today.Add(10 * time.Hour))

	container, err := app.NewContainer(app.Config{
		DBPool:            testPool,
		JWTSecret:         "integration-secret",
		JWTTTL:            30 * time.Minute,
		BcryptCost:        4, // Lower cost for testing purposes
		StoragePath:       storageDir,
		Location:          time.UTC,
		PastGrace:         5 * time.Minute,
		DeleteGrace:       time.Hour,
		MaxVideoSizeBytes: 10 << 20,
		Logger:            zap.NewNop(),
		Clock:             testClock,
	})
	if err != nil {
		log.Fatalf("Unable to build container: %v\n", err)
	}

	testRouter = container.Router
	jwtManager = container.JWTManager
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	container.Deferrer.Shutdown()
	testPool.Close()
	os.RemoveAll(storageDir)
	os.Exit(exitCode)
}

func clearTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE public.bookings, public.rooms, public.files, public.users CASCADE")
	require.NoError(t, err)
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func createTestUser(t *testing.T, personalID string, role user.Role) (*user.User, string) {
	t.Helper()
	hash, err := auth.NewBcryptPasswordHasherWithCost(4).Hash("password")
	require.NoError(t, err)

	u := &user.User{
		PersonalID:   personalID,
		PasswordHash: hash,
		Name:         "User " + personalID,
		Role:         role,
		Status:       user.StatusApproved,
	}
	require.NoError(t, user.NewPgxRepository(testPool).Create(context.Background(), u))

	token, err := jwtManager.GenerateAccessToken(u.ID, u.PersonalID)
	require.NoError(t, err)
	return u, token
}

func TestBookingLifecycle(t *testing.T) {
	clearTables(t)

	_, adminToken := createTestUser(t, "100000001", user.RoleAdmin)
	_, ownerToken := createTestUser(t, "100000002", user.RoleUser)
	_, strangerToken := createTestUser(t, "100000003", user.RoleUser)

	// Past 08:00, so tomorrow is inside the booking horizon for regular users.
	date := testClock.Now().AddDate(0, 0, 1).Format("2006-01-02")
	var roomID, bookingID string

	t.Run("Admin creates room", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/rooms", roomHttp.CreateRequest{
			Name: "Interrogation 1", Capacity: 4, LocationType: "PRISON",
		}, adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var rm roomHttp.RoomResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rm))
		assert.True(t, rm.IsAvailable)
		roomID = rm.ID
	})

	t.Run("User cannot create room", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/rooms", roomHttp.CreateRequest{
			Name: "Nope", LocationType: "PRISON",
		}, ownerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	newBooking := func(start, end string) bookingHttp.CreateBookingRequest {
		return bookingHttp.CreateBookingRequest{
			RoomID: roomID, Date: date, StartTime: start, EndTime: end,
			Title: "Investigator", InvestigatorID: "555", InterrogatedName: "Witness", Offenses: "fraud",
		}
	}

	t.Run("Submit and detect conflicts", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings", newBooking("09:00", "10:00"), ownerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var b bookingHttp.BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
		assert.Equal(t, "PENDING", string(b.Status))
		bookingID = b.ID

		w = executeRequest(http.MethodPost, "/v1/bookings", newBooking("09:30", "10:30"), strangerToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings", newBooking("10:00", "11:00"), strangerToken)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Only admins approve", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/approve", nil, ownerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/approve", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("Strangers cannot see the booking", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, strangerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Timeline shows the booking", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/rooms/"+roomID+"/timeline?date="+date, nil, ownerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var tl bookingHttp.TimelineResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tl))
		require.Len(t, tl.Slots, 24)
		require.Len(t, tl.Slots[9].Occupants, 1)
		assert.Equal(t, bookingID, tl.Slots[9].Occupants[0].BookingID)
	})

	t.Run("Regular users cannot book past tomorrow", func(t *testing.T) {
		req := newBooking("09:00", "10:00")
		req.Date = testClock.Now().AddDate(0, 0, 2).Format("2006-01-02")
		w := executeRequest(http.MethodPost, "/v1/bookings", req, ownerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings", req, adminToken)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("Delete can be undone", func(t *testing.T) {
		w := executeRequest(http.MethodDelete, "/v1/bookings/"+bookingID, nil, ownerToken)
		assert.Equal(t, http.StatusForbidden, w.Code, "owners only delete rejected or cancelled bookings")

		w = executeRequest(http.MethodDelete, "/v1/bookings/"+bookingID, nil, adminToken)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var p bookingHttp.PendingDeleteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.NotEmpty(t, p.Token)

		w = executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var b bookingHttp.BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
		assert.True(t, b.Deleting)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/undo-delete", nil, adminToken)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/undo-delete", nil, adminToken)
		assert.Equal(t, http.StatusGone, w.Code)
	})
}

package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/api"
	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	"github.com/nekogravitycat/smartroom-backend/internal/feed"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/clock"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/storage"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	DBPool            *pgxpool.Pool
	JWTSecret         string
	JWTTTL            time.Duration
	BcryptCost        int
	StoragePath       string
	Location          *time.Location
	PastGrace         time.Duration
	DeleteGrace       time.Duration
	MaxVideoSizeBytes int64
	Logger            *zap.Logger
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Hub        *feed.Hub
	Listener   *feed.PgListener
	Deferrer   *booking.Deferrer
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	// Change feed: every instance NOTIFYs, every instance LISTENs into its own hub.
	hub := feed.NewHub(feed.DefaultBuffer, logger.Named("feed"))
	publisher := feed.NewPgNotifier(cfg.DBPool, logger.Named("feed"))
	listener := feed.NewPgListener(cfg.DBPool, hub, logger.Named("feed"))

	// File Module
	fileRepo := file.NewRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store, logger.Named("file"))

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, publisher, logger.Named("user"))

	// Room Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo, publisher, logger.Named("room"))

	// Booking Module
	deferrer := booking.NewDeferrer(cfg.DeleteGrace, clk, logger.Named("booking"))
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(
		bookingRepo,
		roomService,
		userService,
		fileService,
		publisher,
		clk,
		deferrer,
		booking.Options{Location: cfg.Location, PastGrace: cfg.PastGrace},
		logger.Named("booking"),
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		MaxVideoSizeBytes: cfg.MaxVideoSizeBytes,
		Logger:            logger.Named("http"),
		UserService:       userService,
		FileService:       fileService,
		RoomService:       roomService,
		BookingService:    bookingService,
		Hub:               hub,
		JWTManager:        jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Hub:        hub,
		Listener:   listener,
		Deferrer:   deferrer,
	}, nil
}

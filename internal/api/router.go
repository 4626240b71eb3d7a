package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/smartroom-backend/internal/booking/http"
	"github.com/nekogravitycat/smartroom-backend/internal/dashboard"
	dashboardHttp "github.com/nekogravitycat/smartroom-backend/internal/dashboard/http"
	"github.com/nekogravitycat/smartroom-backend/internal/feed"
	feedHttp "github.com/nekogravitycat/smartroom-backend/internal/feed/http"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	fileHttp "github.com/nekogravitycat/smartroom-backend/internal/file/http"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
	roomHttp "github.com/nekogravitycat/smartroom-backend/internal/room/http"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
	userHttp "github.com/nekogravitycat/smartroom-backend/internal/user/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	MaxVideoSizeBytes int64
	Logger            *zap.Logger

	UserService    user.Service
	FileService    file.Service
	RoomService    room.Service
	BookingService booking.Service
	Hub            *feed.Hub
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: structured access log through zap.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	// Range lets the checkout video player seek.
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Range"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Content-Range", "Accept-Ranges", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates the JWT and loads the account's approval and role.
	authMiddleware := auth.AuthRequired(cfg.JWTManager, LoadUser(cfg.UserService))
	// adminMiddleware: Further checks if the authenticated user is an admin.
	adminMiddleware := RequireAdmin()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	fileHandler := fileHttp.NewHandler(cfg.FileService, cfg.Logger)
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager, fileHandler)
	roomHandler := roomHttp.NewHandler(cfg.RoomService, fileHandler)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, fileHandler, cfg.MaxVideoSizeBytes)
	feedHandler := feedHttp.NewHandler(cfg.Hub)
	dashboardHandler := dashboardHttp.NewHandler(dashboard.NewService(cfg.BookingService, cfg.UserService))

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware)
		roomHttp.RegisterRoutes(v1, roomHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
		feedHttp.RegisterRoutes(v1, feedHandler, authMiddleware)
		dashboardHttp.RegisterRoutes(v1, dashboardHandler, authMiddleware, adminMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

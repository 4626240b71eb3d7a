package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	fileHttp "github.com/nekogravitycat/smartroom-backend/internal/file/http"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

const maxAvatarSize = 10 << 20

type UserHandler struct {
	userService user.Service
	jwtManager  *auth.JWTManager
	fileHandler *fileHttp.Handler
}

func NewHandler(userService user.Service, jwtManager *auth.JWTManager, fileHandler *fileHttp.Handler) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
		fileHandler: fileHandler,
	}
}

// Register creates a pending account. The user can log in once an admin approves it.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	u, err := h.userService.Register(c.Request.Context(), user.RegisterRequest{
		PersonalID:  req.PersonalID,
		Password:    req.Password,
		Name:        req.Name,
		Base:        req.Base,
		JobTitle:    req.JobTitle,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, MeResponse{User: NewUserResponse(u)})
}

// Login authenticates a user using personal id and password.
// On success, it returns a JWT access token and the user profile.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.PersonalID, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.PersonalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		User:        NewUserResponse(u),
	})
}

// Me retrieves the profile of the currently authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// UpdateMe changes the caller's own profile.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var body UpdateMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body", err)
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), auth.GetUserID(c), user.UpdateProfileRequest{
		Name:             body.Name,
		Base:             body.Base,
		JobTitle:         body.JobTitle,
		PhoneNumber:      body.PhoneNumber,
		Password:         body.Password,
		CustomBackground: body.CustomBackground,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// UploadAvatar stores an image and makes it the caller's avatar.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID := auth.GetUserID(c)
	var updated *user.User

	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "avatar",
		MaxSizeBytes:  maxAvatarSize,
		AllowedTypes:  file.ImageTypes,
		Thumbnail:     true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			u, err := h.userService.UpdateProfile(ctx, userID, user.UpdateProfileRequest{AvatarFileID: &fileID})
			updated = u
			return err
		},
		Respond: func(c *gin.Context, _ *file.File) {
			c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(updated)})
		},
	})
}

// List retrieves a paginated list of users with optional filtering.
// Access Control: Admin only.
func (h *UserHandler) List(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error(), nil)
		return
	}

	filter := user.Filter{
		Search:    strings.TrimSpace(req.Search),
		Role:      user.Role(req.Role),
		Status:    user.Status(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.Order(),
	}

	users, total, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = NewUserResponse(u)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Get retrieves a specific user by their ID.
// Access Control: Admin only.
func (h *UserHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

func (h *UserHandler) Approve(c *gin.Context) {
	h.setStatus(c, user.StatusApproved)
}

func (h *UserHandler) Reject(c *gin.Context) {
	h.setStatus(c, user.StatusRejected)
}

func (h *UserHandler) Promote(c *gin.Context) {
	h.setRole(c, user.RoleAdmin)
}

func (h *UserHandler) Revoke(c *gin.Context) {
	h.setRole(c, user.RoleUser)
}

func (h *UserHandler) setStatus(c *gin.Context, status user.Status) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.SetStatus(c.Request.Context(), req.ID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

func (h *UserHandler) setRole(c *gin.Context, role user.Role) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.SetRole(c.Request.Context(), auth.GetUserID(c), req.ID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// Delete permanently removes a user. Their bookings keep the name snapshot.
// Access Control: Admin only.
func (h *UserHandler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), auth.GetUserID(c), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

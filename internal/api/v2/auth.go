package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/errors"
	"github.com/campusworks/eventhub/internal/security"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse carries the bearer token and the user it belongs to.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func userResponse(u *datastore.User) UserResponse {
	return UserResponse{
		ID:    u.PublicID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Register handles POST /api/v2/auth/register
func (c *Controller) Register(ctx echo.Context) error {
	var req RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.HandleError(ctx, nil, "Name and a valid email are required", http.StatusBadRequest)
	}
	if len(req.Password) < 8 {
		return c.HandleError(ctx, nil, "Password must be at least 8 characters", http.StatusBadRequest)
	}

	// self-service signup never grants admin
	role := datastore.RoleUser
	if req.Role == datastore.RoleOrganizer {
		role = datastore.RoleOrganizer
	}

	if _, err := c.DS.GetUserByEmail(req.Email); err == nil {
		return c.HandleError(ctx, nil, "Email is already registered", http.StatusConflict)
	}

	hash, err := security.HashPassword(req.Password, c.Settings.Security.BcryptCost)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create account", http.StatusInternalServerError)
	}

	user := datastore.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := c.DS.CreateUser(&user); err != nil {
		return c.HandleError(ctx, err, "Failed to create account", mapErrorStatus(err))
	}

	c.apiLogger.Info("user registered", "user", user.PublicID, "role", user.Role)
	return ctx.JSON(http.StatusCreated, userResponse(&user))
}

// Login handles POST /api/v2/auth/login
func (c *Controller) Login(ctx echo.Context) error {
	var req LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	user, err := c.DS.GetUserByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !security.CheckPassword(user.PasswordHash, req.Password) {
		// same response for unknown email and wrong password
		return c.HandleError(ctx, nil, "Invalid email or password", http.StatusUnauthorized)
	}

	token := c.Sessions.Create(user.ID, user.PublicID, user.Role)
	c.apiLogger.Info("user logged in", "user", user.PublicID)
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  userResponse(&user),
	})
}

// Logout handles POST /api/v2/auth/logout
func (c *Controller) Logout(ctx echo.Context) error {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		c.Sessions.Destroy(token)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Me handles GET /api/v2/auth/me
func (c *Controller) Me(ctx echo.Context) error {
	session, _ := currentSession(ctx)
	user, err := c.DS.GetUserByID(session.UserID)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return c.HandleError(ctx, err, "Account no longer exists", http.StatusUnauthorized)
		}
		return c.HandleError(ctx, err, "Failed to load account", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, userResponse(&user))
}

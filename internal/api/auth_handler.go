package api

import (
	"alcyxob/totalfit/internal/app"
	"alcyxob/totalfit/internal/domain"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler signs identities in and out through the registry.
type AuthHandler struct {
	registry *app.Registry
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(registry *app.Registry, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{registry: registry, logger: logger}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	RememberMe bool   `json:"rememberMe"`
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      domain.Identity `json:"user"`
	State     app.Snapshot    `json:"state"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register and sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, snap, err := h.registry.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.logger.Warn("Registration failed", zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      result.Identity,
		State:     snap,
	})
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT bound to a new session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, snap, err := h.registry.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      result.Identity,
		State:     snap,
	})
}

// Logout godoc
// @Summary End the current session
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := getSessionIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err := h.registry.Logout(c.Request.Context(), sessionID); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

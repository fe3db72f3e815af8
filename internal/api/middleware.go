package api

import (
	"alcyxob/totalfit/internal/app"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Constants for context keys
const (
	ContextUserIDKey     = "userID"
	ContextSessionIDKey  = "sessionID"
	ContextControllerKey = "controller"
)

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" || claims.SessionID == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// SessionMiddleware resolves the token's session to the identity's controller.
// Must run AFTER AuthMiddleware.
func SessionMiddleware(registry *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := getSessionIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		controller, err := registry.Resume(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, app.ErrNoSession) {
				abortWithError(c, http.StatusUnauthorized, "Session has ended, please sign in again")
				return
			}
			writeError(c, err)
			return
		}
		userID, _ := getUserIDFromContext(c)
		if controller.Identity().ID != userID {
			abortWithError(c, http.StatusUnauthorized, "Token does not match session")
			return
		}
		c.Set(ContextControllerKey, controller)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

func getSessionIDFromContext(c *gin.Context) (string, error) {
	raw, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return "", errors.New("session ID not found in context")
	}
	id, ok := raw.(string)
	if !ok {
		return "", errors.New("invalid session ID type in context")
	}
	return id, nil
}

func controllerFromContext(c *gin.Context) *app.Controller {
	return c.MustGet(ContextControllerKey).(*app.Controller)
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/safepost/safepost/internal/auth"
	"github.com/safepost/safepost/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

// GetSessionData returns the authenticated session for a request, if any
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// resolveSession validates a bearer token and loads the backing user
func resolveSession(db *gorm.DB, token string) (*auth.SessionData, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Verify user still exists in database
	var user models.User
	if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	return &auth.SessionData{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// JWTAuthMiddleware rejects requests without a valid bearer token
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Unauthorized request")
			respondError(c, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		sessionData, err := resolveSession(db, token)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Token rejected")
			respondError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves a session when a valid token is present
// but lets anonymous requests through untouched
func OptionalAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if sessionData, err := resolveSession(db, token); err == nil {
				setSession(c, sessionData)
			} else {
				log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Ignoring invalid token on optional-auth route")
			}
		}
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			log.Warn().Str("user_id", sessionData.UserID).Msg("Admin access denied")
			respondError(c, http.StatusForbidden, "Admin access required")
			return
		}

		c.Next()
	}
}

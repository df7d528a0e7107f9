package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/config"
	"memorial-storefront/internal/models"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errMissingSub    = errors.New("missing user id in token")
)

// AuthMiddleware requires a Supabase access token signed with the project's
// JWT secret (HS256). The token subject becomes the user id.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c.GetHeader("Authorization"), cfg.SupabaseJWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: describe(err),
			})
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets the
// request through anonymously otherwise. Guests can check out without an
// account.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		claims, err := authenticate(header, cfg.SupabaseJWTSecret)
		if err != nil {
			log.WithError(err).Debug("ignoring invalid optional token")
			c.Next()
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func authenticate(header, secret string) (jwt.MapClaims, error) {
	if header == "" {
		return nil, errMissingHeader
	}

	scheme, tokenString, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, errHeaderFormat
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errHeaderFormat
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if secret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		// Supabase signs with the raw project secret.
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, errMissingSub
	}
	return claims, nil
}

func setUser(c *gin.Context, claims jwt.MapClaims) {
	c.Set(UserIDKey, claims["sub"].(string))
	if email, ok := claims["email"].(string); ok {
		c.Set(UserEmailKey, email)
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed"
	case errors.Is(err, errMissingHeader), errors.Is(err, errHeaderFormat), errors.Is(err, errMissingSub):
		return err.Error()
	default:
		return "invalid token"
	}
}

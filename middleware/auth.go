package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// identityKey is where EnsureValidToken leaves the caller in the gin context
const identityKey = "identity"

// ErrNoIdentity means the request never passed through EnsureValidToken
var ErrNoIdentity = errors.New("no authenticated identity in context")

// CustomClaims contains the application claims carried by a session token.
type CustomClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Validate rejects tokens that do not carry a known role.
func (c CustomClaims) Validate(ctx context.Context) error {
	switch c.Role {
	case models.RoleCustomer, models.RoleTailor, models.RoleAdmin:
		return nil
	}
	return fmt.Errorf("unknown role %q", c.Role)
}

// EnsureValidToken verifies the bearer session token (HS256, issuer, audience,
// expiry, known role, numeric subject) and records the caller for later handlers.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up the jwt validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		message := "Invalid or expired token"
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			message = "Authorization token is required"
		}
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected request token")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		body := fmt.Sprintf(`{"success":false,"error":{"code":"UNAUTHORIZED","message":%q}}`, message)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.Error().Err(writeErr).Msg("Failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		authenticated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			userID, err := strconv.ParseUint(token.RegisteredClaims.Subject, 10, 64)
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			claims := token.CustomClaims.(*CustomClaims)

			authenticated = true
			SetIdentity(c, models.Identity{UserID: uint(userID), Email: claims.Email, Role: claims.Role})

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !authenticated {
			c.Abort()
		}
	}
}

// GetIdentity returns the caller resolved from the session token
func GetIdentity(c *gin.Context) (models.Identity, error) {
	if identity, ok := c.Value(identityKey).(models.Identity); ok {
		return identity, nil
	}
	return models.Identity{}, ErrNoIdentity
}

// SetIdentity stores a caller in the context. Handler tests use it to skip tokens.
func SetIdentity(c *gin.Context, identity models.Identity) {
	c.Set(identityKey, identity)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// RequireRole lets through only callers holding one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := GetIdentity(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		if !slices.Contains(roles, identity.Role) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions to access this resource")
			return
		}
		c.Next()
	}
}

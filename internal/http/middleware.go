package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/onrope-scheduler/internal/application"
)

// AccessClaims are the claims read from identity provider tokens.
type AccessClaims struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

var errMissingClaims = errors.New("token is missing required claims")

// RequireJWT verifies HS256 bearer tokens and stores the principal on the request context.
// Tokens without an expiry are rejected.
func RequireJWT(secret []byte, logger *slog.Logger) gin.HandlerFunc {
	responder := newResponder(logger)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			responder.writeError(c, http.StatusUnauthorized, "AUTH_REQUIRED", msgUnauthorized)
			return
		}

		claims := &AccessClaims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err == nil {
			err = claims.validate()
		}
		if err != nil {
			responder.loggerFor(c).InfoContext(c.Request.Context(), "access token rejected", "error", err)
			responder.writeError(c, http.StatusUnauthorized, "AUTH_INVALID_TOKEN", msgInvalidToken)
			return
		}

		principal := application.Principal{
			UserID:     claims.Subject,
			CompanyID:  claims.CompanyID,
			EmployeeID: claims.EmployeeID,
			Role:       application.Role(claims.Role),
		}
		ctx := ContextWithPrincipal(c.Request.Context(), principal)
		if logger := LoggerFromContext(ctx); logger != nil {
			ctx = ContextWithLogger(ctx, logger.With("user_id", principal.UserID, "company_id", principal.CompanyID))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (c *AccessClaims) validate() error {
	if c.Subject == "" || c.CompanyID == "" || !application.Role(c.Role).Valid() {
		return errMissingClaims
	}
	return nil
}

// RequestLogger assigns a request ID and carries a request scoped logger through the context.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	base = defaultLogger(base)

	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		logger := base.With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		ctx := ContextWithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		logger.DebugContext(ctx, "request started")
		c.Next()
		logger.InfoContext(ctx, "request completed",
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/metrics"
	"franchise-catalog/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const requestIDLocal = "requestid"

// TokenValidator checks a bearer token and returns its subject
type TokenValidator interface {
	Subject(ctx context.Context, token string) (string, error)
}

// TokenValidatorFunc adapts a function to TokenValidator
type TokenValidatorFunc func(ctx context.Context, token string) (string, error)

func (f TokenValidatorFunc) Subject(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// CORS allows the configured origins
func CORS(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID," + HeaderEnvelopeSkip,
		MaxAge:       86400,
	})
}

// SecurityHeaders adds security headers
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Cache-Control", "no-store")
		return c.Next()
	}
}

// RequestID assigns or propagates X-Request-ID and copies it into the user context
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: requestIDLocal,
	})
}

// RequestContext carries the request id into the context handed to the use cases
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestIDLocal).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Metrics counts requests per matched route
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperrors.HTTPStatus(err)
			}
		}
		route := c.Route().Path
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(started).Seconds())
		return err
	}
}

// BearerGuard rejects requests without a valid bearer token and records the token subject
func BearerGuard(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return respondError(c, apperrors.NewAuthenticationError("authentication required").
				WithCode("MISSING_TOKEN"))
		}

		subject, err := validator.Subject(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeAuthentication {
				return respondError(c, appErr)
			}
			return respondError(c, apperrors.NewAuthenticationError("invalid token").
				WithCode("INVALID_TOKEN"))
		}

		c.SetUserContext(utils.WithSubject(c.UserContext(), subject))
		return c.Next()
	}
}

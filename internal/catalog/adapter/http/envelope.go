package http

import (
	"strings"

	apperrors "franchise-catalog/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// HeaderEnvelopeSkip asks for the bare payload instead of the envelope on success
const HeaderEnvelopeSkip = "X-Envelope-Skip"

// Envelope wraps every JSON response
type Envelope struct {
	Status  int                    `json:"status"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	if strings.EqualFold(c.Get(HeaderEnvelopeSkip), "true") {
		if data == nil {
			c.Status(status)
			return nil
		}
		return c.Status(status).JSON(data)
	}
	return c.Status(status).JSON(Envelope{Status: status, Message: message, Data: data})
}

// respondError writes err with the status its AppError carries; anything else is a 500
// whose message is not exposed.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return c.Status(status).JSON(Envelope{Status: status, Message: "internal server error"})
	}

	env := Envelope{Status: status, Message: appErr.Message, Code: appErr.Code}
	if status < fiber.StatusInternalServerError && len(appErr.Details) > 0 {
		env.Details = appErr.Details
	}
	return c.Status(status).JSON(env)
}

// ErrorHandler renders errors returned from handlers and middleware in the envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(Envelope{Status: fe.Code, Message: fe.Message})
	}
	return respondError(c, err)
}

package handlers

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"

	applog "foodloop/internal/log"
	"foodloop/internal/services"
	"foodloop/internal/validate"
)

const genericError = "Something went wrong. Please try again."

// errorBody is the one JSON error shape every route returns.
type errorBody struct {
	Error            string              `json:"error"`
	Code             string              `json:"code"`
	ValidationErrors validate.Violations `json:"validation_errors,omitempty"`
	Retryable        bool                `json:"retryable,omitempty"`
}

func abort(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(errorBody{Error: msg, Code: code})
}

// fail maps a service error onto its HTTP status and logs it under action.
// Unknown errors become a generic 500; their details only reach the log.
func fail(c *fiber.Ctx, action string, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "fields": fieldNames(ve.Fields)})
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "Validation failed", Code: "validation_failed", ValidationErrors: ve.Fields,
		})
	case errors.Is(err, services.ErrConflictRetry):
		applog.Warn(c, action+".conflict", err, nil)
		return c.Status(fiber.StatusConflict).JSON(errorBody{
			Error: "The request conflicted with another update, please retry", Code: "conflict", Retryable: true,
		})
	case errors.Is(err, services.ErrNotAvailable):
		return abort(c, fiber.StatusConflict, "conflict", "Listing not available")
	case errors.Is(err, services.ErrClaimClosed):
		return abort(c, fiber.StatusConflict, "conflict", "Claim is already completed or cancelled")
	case errors.Is(err, services.ErrAuthInvalid):
		applog.Security(c, "auth.token.invalid", nil)
		return abort(c, fiber.StatusUnauthorized, "auth_invalid", "Invalid or expired token")
	case errors.Is(err, services.ErrNotRegistered):
		applog.Security(c, "auth.not_registered", nil)
		return abort(c, fiber.StatusForbidden, "not_registered", "User is authenticated but not registered")
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return abort(c, fiber.StatusForbidden, "forbidden", "Not authorized")
	case errors.Is(err, services.ErrNotFound):
		return abort(c, fiber.StatusNotFound, "not_found", "Not found")
	}
	applog.Error(c, action+".fail", err, nil)
	return abort(c, fiber.StatusInternalServerError, "internal", genericError)
}

func badBody(c *fiber.Ctx, action string) error {
	return fail(c, action, &services.ValidationError{Fields: validate.Violations{"body": "request body must be valid JSON"}})
}

// ErrorHandler renders errors that escape handlers (routing, body limits,
// panics) in the same JSON shape without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code := "request_error"
		if fe.Code == fiber.StatusNotFound {
			code = "not_found"
		}
		return abort(c, fe.Code, code, fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return abort(c, fiber.StatusInternalServerError, "internal", genericError)
}

func fieldNames(v validate.Violations) []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

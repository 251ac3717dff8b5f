package handlers

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/domain"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// CalendarSettingsPath is where OAuth callbacks land the user.
const CalendarSettingsPath = "/employee/settings"

// CallbackCompleter finishes a provider OAuth flow.
type CallbackCompleter interface {
	HandleCallback(ctx context.Context, provider domain.CalendarProvider, code, state, providerErr string) (string, error)
}

// CalendarDisconnector removes a staff member's calendar link.
type CalendarDisconnector interface {
	DisconnectCalendar(ctx context.Context, actor *domain.Staff, provider domain.CalendarProvider) (bool, error)
}

// CalendarHandler serves the OAuth callbacks and the disconnect endpoint.
type CalendarHandler struct {
	callbacks CallbackCompleter
	meetings  CalendarDisconnector
	logger    *zap.Logger
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(callbacks CallbackCompleter, meetings CalendarDisconnector, logger *zap.Logger) *CalendarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarHandler{callbacks: callbacks, meetings: meetings, logger: logger}
}

// Callback returns the redirect handler for provider.
func (h *CalendarHandler) Callback(provider domain.CalendarProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staffID, err := h.callbacks.HandleCallback(c.UserContext(), provider, c.Query("code"), c.Query("state"), c.Query("error"))
		if err != nil {
			reason := calendar.ReasonExchangeFailed
			var cbErr *calendar.CallbackError
			if errors.As(err, &cbErr) {
				reason = cbErr.Reason
			}
			h.logger.Warn("calendar callback failed",
				zap.String("provider", string(provider)),
				zap.String("staff_id", staffID),
				zap.String("reason", reason),
				zap.Error(err))
			return c.Redirect(settingsURL(url.Values{"calendar": {"error"}, "reason": {reason}}), fiber.StatusFound)
		}
		return c.Redirect(settingsURL(url.Values{"calendar": {"connected"}}), fiber.StatusFound)
	}
}

type disconnectRequest struct {
	Provider domain.CalendarProvider `json:"provider"`
}

// Disconnect clears the caller's tokens for the posted provider.
func (h *CalendarHandler) Disconnect(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		if _, hasSession := auth.FromContext(c); !hasSession {
			return apperrors.NewUnauthorized("sign in required")
		}
		return apperrors.NewForbidden("staff profile required")
	}
	var req disconnectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	removed, err := h.meetings.DisconnectCalendar(c.UserContext(), staff, req.Provider)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true, "removed": removed}})
}

func settingsURL(params url.Values) string {
	return CalendarSettingsPath + "?" + params.Encode()
}

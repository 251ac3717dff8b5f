package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// VisitorResponder answers visit requests from emailed links.
type VisitorResponder interface {
	VerifyToken(ctx context.Context, token string) (*service.TokenInfo, error)
	Respond(ctx context.Context, token string, action domain.VisitorAction) (*service.RespondResult, error)
}

// VisitorResponseHandler serves /visitor-response for hosts following the
// accept and decline links of arrival emails.
type VisitorResponseHandler struct {
	visitors VisitorResponder
	appName  string
	logger   *zap.Logger
}

// NewVisitorResponseHandler constructs the handler.
func NewVisitorResponseHandler(visitors VisitorResponder, appName string, logger *zap.Logger) *VisitorResponseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitorResponseHandler{visitors: visitors, appName: appName, logger: logger}
}

type responseFormPage struct {
	Title   string
	AppName string
	Token   string
	Info    *service.TokenInfo
	Message string
}

type responseResultPage struct {
	Title            string
	AppName          string
	VisitorName      string
	Decision         string
	AlreadyResponded bool
	Message          string
}

// Show responds at once when the link carries both token and action, and
// otherwise renders a confirmation form.
func (h *VisitorResponseHandler) Show(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	action := domain.VisitorAction(strings.TrimSpace(c.Query("action")))
	if token != "" && action != "" {
		return h.respond(c, token, action)
	}

	page := responseFormPage{Title: "Visitor request", AppName: h.appName, Token: token}
	if token == "" {
		page.Message = "This link is incomplete. Open the link from your email again."
		return renderPage(c, fiber.StatusBadRequest, responseFormTemplate, page)
	}
	info, err := h.visitors.VerifyToken(c.UserContext(), token)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		page.Token = ""
		page.Message = domainErr.Message
		return renderPage(c, domainErr.HTTPStatus, responseFormTemplate, page)
	}
	page.Info = info
	if info.AlreadyResponded {
		page.Token = ""
		page.Message = "This visit has already been answered."
	}
	return renderPage(c, fiber.StatusOK, responseFormTemplate, page)
}

// Submit handles the confirmation form.
func (h *VisitorResponseHandler) Submit(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.FormValue("token"))
	action := domain.VisitorAction(strings.TrimSpace(c.FormValue("action")))
	return h.respond(c, token, action)
}

func (h *VisitorResponseHandler) respond(c *fiber.Ctx, token string, action domain.VisitorAction) error {
	page := responseResultPage{Title: "Visitor request", AppName: h.appName}
	result, err := h.visitors.Respond(c.UserContext(), token, action)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			h.logger.Error("visitor response failed", zap.Error(err))
		}
		page.Message = domainErr.Message
		return renderPage(c, domainErr.HTTPStatus, responseResultTemplate, page)
	}
	page.VisitorName = result.Visitor.Name
	page.AlreadyResponded = result.AlreadyResponded
	page.Decision = decisionLabel(result.Visitor.Status)
	return renderPage(c, fiber.StatusOK, responseResultTemplate, page)
}

func decisionLabel(status domain.VisitorStatus) string {
	switch status {
	case domain.VisitorStatusApproved:
		return "approved"
	case domain.VisitorStatusDeclined:
		return "declined"
	case domain.VisitorStatusCheckedOut:
		return "checked out"
	}
	return "answered"
}

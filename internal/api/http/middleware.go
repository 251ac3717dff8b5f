package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/observability"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders errors as {"error": {...}} and turns panics
// into INTERNAL_SERVER_ERROR responses.
func errorHandlingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeError(c, logger, err)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler is the fiber fallback for errors raised outside the middleware
// chain, such as unmatched routes.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, err)
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var domainErr *apperrors.DomainError
	if fe, ok := err.(*fiber.Error); ok {
		domainErr = apperrors.NewDomainError(fiberCode(fe.Code), fe.Message, fe.Code, nil)
	} else {
		domainErr = apperrors.ToDomainError(err)
	}
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
	}
	return c.Status(domainErr.HTTPStatus).JSON(apperrors.Envelope(domainErr))
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest:
		return apperrors.CodeBadRequest
	case fiber.StatusRequestEntityTooLarge:
		return apperrors.CodeTooLarge
	case fiber.StatusTooManyRequests:
		return apperrors.CodeTooManyRequests
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return apperrors.CodeBadRequest
}

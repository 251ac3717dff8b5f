package auth

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/frontdesk/internal/observability"
)

// SignInPath is where unauthenticated callers are sent.
const SignInPath = "/sign-in"

// SignInRedirect builds the sign-in URL preserving the original absolute URL.
func SignInRedirect(c *fiber.Ctx) string {
	original := c.BaseURL() + c.OriginalURL()
	return SignInPath + "?redirect_url=" + url.QueryEscape(original)
}

// Gate redirects session-less requests for protected paths to sign-in. All
// other requests pass through unchanged.
func Gate(classifier *RouteClassifier, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if classifier.Classify(c.Path()) != RouteProtected {
			return c.Next()
		}
		if _, ok := FromContext(c); ok {
			return c.Next()
		}
		metrics.RecordRedirect("unauthenticated")
		return c.Redirect(SignInRedirect(c), fiber.StatusFound)
	}
}

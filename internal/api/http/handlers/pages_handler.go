package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// PagesConfig configures the page shells and PWA assets.
type PagesConfig struct {
	AppName     string
	SignInURL   string
	Development bool
}

// PagesHandler serves the HTML shells the client application mounts into,
// the web manifest and the service worker.
type PagesHandler struct {
	cfg PagesConfig
}

// NewPagesHandler constructs the handler.
func NewPagesHandler(cfg PagesConfig) *PagesHandler {
	return &PagesHandler{cfg: cfg}
}

type shellPage struct {
	Title   string
	AppName string
	Section string
	Path    string
}

// Shell returns a handler rendering the shell for section.
func (h *PagesHandler) Shell(section, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderPage(c, fiber.StatusOK, shellTemplate, shellPage{
			Title:   title,
			AppName: h.cfg.AppName,
			Section: section,
			Path:    c.Path(),
		})
	}
}

// SignIn forwards to the hosted sign-in page when one is configured.
func (h *PagesHandler) SignIn(c *fiber.Ctx) error {
	if h.cfg.SignInURL == "" {
		return h.Shell("sign-in", "Sign in")(c)
	}
	target, err := url.Parse(h.cfg.SignInURL)
	if err != nil {
		return err
	}
	if redirect := c.Query("redirect_url"); redirect != "" {
		q := target.Query()
		q.Set("redirect_url", redirect)
		target.RawQuery = q.Encode()
	}
	return c.Redirect(target.String(), fiber.StatusFound)
}

// Manifest serves the web app manifest.
func (h *PagesHandler) Manifest(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":             h.cfg.AppName,
		"short_name":       h.cfg.AppName,
		"start_url":        "/",
		"display":          "standalone",
		"background_color": "#ffffff",
		"theme_color":      "#0f172a",
		"icons": []fiber.Map{
			{"src": "/icons/icon-192.png", "sizes": "192x192", "type": "image/png"},
			{"src": "/icons/icon-512.png", "sizes": "512x512", "type": "image/png"},
		},
	}, "application/manifest+json")
}

const serviceWorker = `const CACHE = "frontdesk-v1";
self.addEventListener("install", (event) => { self.skipWaiting(); });
self.addEventListener("activate", (event) => { event.waitUntil(self.clients.claim()); });
self.addEventListener("fetch", (event) => {
  const req = event.request;
  if (req.method !== "GET" || new URL(req.url).pathname.startsWith("/api/")) return;
  event.respondWith(
    fetch(req)
      .then((res) => {
        const copy = res.clone();
        caches.open(CACHE).then((cache) => cache.put(req, copy));
        return res;
      })
      .catch(() => caches.match(req))
  );
});
`

// unregisterWorker clears caches and removes any installed worker.
const unregisterWorker = `self.addEventListener("install", () => self.skipWaiting());
self.addEventListener("activate", (event) => {
  event.waitUntil(
    caches.keys()
      .then((keys) => Promise.all(keys.map((k) => caches.delete(k))))
      .then(() => self.registration.unregister())
      .then(() => self.clients.matchAll())
      .then((clients) => clients.forEach((client) => client.navigate(client.url)))
  );
});
`

// ServiceWorker serves the caching worker, or a self-unregistering stub in
// development.
func (h *PagesHandler) ServiceWorker(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	if h.cfg.Development {
		return c.SendString(unregisterWorker)
	}
	return c.SendString(serviceWorker)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/api/http/handlers"
	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/observability"
	"github.com/spec-kit/frontdesk/internal/ratelimit"
	"github.com/spec-kit/frontdesk/internal/rpc"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Calendar        *handlers.CalendarHandler
	Upload          *handlers.UploadHandler
	Pages           *handlers.PagesHandler
	VisitorResponse *handlers.VisitorResponseHandler
	RPC             *rpc.Router

	Sessions      auth.SessionVerifier
	SessionCookie string
	Classifier    *auth.RouteClassifier
	Guard         auth.GuardDeps
	Limiter       *ratelimit.Limiter
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

type sectionPages struct {
	root    string
	section auth.Section
	title   string
}

var sections = []sectionPages{
	{root: "/dashboard", section: auth.SectionAdmin, title: "Dashboard"},
	{root: "/employee", section: auth.SectionEmployee, title: "Employee"},
	{root: "/it", section: auth.SectionIT, title: "IT helpdesk"},
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = auth.NewRouteClassifier(auth.DefaultPublicRoutes, auth.DefaultProtectedRoots)
	}

	app.Use(auth.SessionMiddleware(cfg.Sessions, cfg.SessionCookie, logger))
	app.Use(auth.Gate(classifier, cfg.Metrics))

	app.Get("/", auth.RootRedirect(cfg.Guard.Profiles, logger))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Handler())

	app.Get("/manifest.json", cfg.Pages.Manifest)
	app.Get("/sw.js", cfg.Pages.ServiceWorker)
	app.Get("/landing", cfg.Pages.Shell("landing", "Welcome"))
	app.Get("/setup-pending", cfg.Pages.Shell("setup-pending", "Setup pending"))
	app.Get(auth.SignInPath, cfg.Pages.SignIn)
	app.Get(auth.SignInPath+"/*", cfg.Pages.SignIn)
	app.Get("/sign-up/*", cfg.Pages.Shell("sign-up", "Sign up"))
	app.Get("/visitor/*", cfg.Pages.Shell("kiosk", "Visitor check-in"))

	respond := cfg.Limiter.Middleware("visitor-response")
	app.Get("/visitor-response", respond, cfg.VisitorResponse.Show)
	app.Post("/visitor-response", respond, cfg.VisitorResponse.Submit)

	for _, s := range sections {
		guard := auth.SectionGuard(s.section, cfg.Guard)
		shell := cfg.Pages.Shell(string(s.section), s.title)
		app.Get(s.root, guard, shell)
		app.Get(s.root+"/*", guard, shell)
	}

	api := app.Group("/api")
	profile := auth.LoadProfile(cfg.Guard.Profiles)
	api.Get("/rpc/:procedure", profile, cfg.RPC.Handle)
	api.Post("/rpc/:procedure", profile, cfg.RPC.Handle)

	app.Get(calendar.CallbackPath(domain.CalendarGoogle), cfg.Calendar.Callback(domain.CalendarGoogle))
	app.Get(calendar.CallbackPath(domain.CalendarOutlook), cfg.Calendar.Callback(domain.CalendarOutlook))
	api.Post("/calendar/disconnect", profile, auth.RequireStaffRole(), cfg.Calendar.Disconnect)

	api.Post("/upload", cfg.Limiter.Middleware("upload"), cfg.Upload.Upload)
}

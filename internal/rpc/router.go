// Package rpc serves named procedures under /api/rpc/:procedure. Inputs are
// JSON (POST body or GET ?input=), outputs are wrapped as {"data": ...}.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/observability"
	"github.com/spec-kit/frontdesk/internal/ratelimit"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// Access is the caller requirement of a procedure.
type Access struct {
	public bool
	roles  []domain.StaffRole
}

var (
	// Public procedures need no session and are rate limited per client.
	Public = Access{public: true}
	// Authed procedures need a session and an active staff profile.
	Authed = Access{}
)

// Roles restricts a procedure to staff holding one of roles.
func Roles(roles ...domain.StaffRole) Access {
	return Access{roles: roles}
}

// Handler runs one procedure and returns its output.
type Handler func(call *Call) (any, error)

type procedure struct {
	access  Access
	handler Handler
}

// Options configures a Router.
type Options struct {
	Validate *validator.Validate
	Limiter  *ratelimit.Limiter
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Router dispatches procedure calls.
type Router struct {
	procedures map[string]procedure
	validate   *validator.Validate
	limiter    *ratelimit.Limiter
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewRouter builds an empty router.
func NewRouter(opts Options) *Router {
	validate := opts.Validate
	if validate == nil {
		validate = NewValidator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		procedures: map[string]procedure{},
		validate:   validate,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Register adds a procedure. Registering a name twice panics.
func (r *Router) Register(name string, access Access, handler Handler) {
	if _, exists := r.procedures[name]; exists {
		panic("rpc: duplicate procedure " + name)
	}
	r.procedures[name] = procedure{access: access, handler: handler}
}

// Procedures lists registered names in order.
func (r *Router) Procedures() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PublicProcedures lists the names callable without a session.
func (r *Router) PublicProcedures() []string {
	var names []string
	for _, name := range r.Procedures() {
		if r.procedures[name].access.public {
			names = append(names, name)
		}
	}
	return names
}

// Handle serves GET and POST /api/rpc/:procedure.
func (r *Router) Handle(c *fiber.Ctx) error {
	name := c.Params("procedure")
	output, err := r.dispatch(c, name)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		r.metrics.RecordRPC(name, domainErr.Code)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			r.logger.Error("rpc call failed", zap.String("procedure", name), zap.Error(err))
		}
		return c.Status(domainErr.HTTPStatus).JSON(apperrors.Envelope(domainErr))
	}
	r.metrics.RecordRPC(name, "OK")
	return c.JSON(fiber.Map{"data": output})
}

func (r *Router) dispatch(c *fiber.Ctx, name string) (any, error) {
	proc, ok := r.procedures[name]
	if !ok {
		return nil, apperrors.NewNotFound("procedure", map[string]any{"procedure": name})
	}

	call := &Call{fiber: c, validate: r.validate}
	call.Session, _ = auth.FromContext(c)
	call.Staff, _ = auth.StaffFromContext(c)

	if proc.access.public {
		if err := r.throttle(c, name); err != nil {
			return nil, err
		}
	} else {
		if call.Session == nil {
			return nil, apperrors.NewUnauthorized("sign in required")
		}
		if call.Staff == nil || !call.Staff.Active {
			return nil, apperrors.NewForbidden("staff profile required")
		}
		if len(proc.access.roles) > 0 && !call.Staff.HasRole(proc.access.roles...) {
			return nil, apperrors.NewForbidden("insufficient role")
		}
	}

	raw, err := rawInput(c)
	if err != nil {
		return nil, err
	}
	call.input = raw
	return proc.handler(call)
}

func (r *Router) throttle(c *fiber.Ctx, name string) error {
	if r.limiter == nil {
		return nil
	}
	result, err := r.limiter.Allow(c, "rpc:"+name)
	if err != nil {
		r.logger.Warn("rate limit check failed", zap.String("procedure", name), zap.Error(err))
		return nil
	}
	if result.Reached {
		return apperrors.NewTooManyRequests("too many requests, slow down")
	}
	return nil
}

func rawInput(c *fiber.Ctx) ([]byte, error) {
	switch c.Method() {
	case fiber.MethodGet:
		return []byte(c.Query("input")), nil
	case fiber.MethodPost:
		return c.Body(), nil
	}
	return nil, apperrors.NewValidationError("unsupported method", map[string]any{"method": c.Method()})
}

// Call is one procedure invocation.
type Call struct {
	fiber    *fiber.Ctx
	validate *validator.Validate
	input    []byte

	// Session is nil for anonymous callers of public procedures.
	Session *auth.RequestContext
	// Staff is the caller's active profile, nil for anonymous callers.
	Staff *domain.Staff
}

// Context returns the request context.
func (c *Call) Context() context.Context {
	return c.fiber.UserContext()
}

// Bind decodes the input into dst and validates its struct tags. A missing
// input decodes as an empty object.
func (c *Call) Bind(dst any) error {
	raw := strings.TrimSpace(string(c.input))
	if raw == "" || raw == "null" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperrors.NewValidationError("invalid input", map[string]any{"reason": err.Error()})
	}
	if err := c.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make(map[string]any, len(invalid))
			for _, fe := range invalid {
				fields[fieldPath(fe)] = fe.Tag()
			}
			return apperrors.NewValidationError("invalid input", map[string]any{"fields": fields})
		}
		return apperrors.NewValidationError("invalid input", nil)
	}
	return nil
}

// fieldPath strips the struct name from the namespace: "Req.items[0].email"
// becomes "items[0].email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Input binds the call input into a fresh T.
func Input[T any](call *Call) (T, error) {
	var in T
	err := call.Bind(&in)
	return in, err
}

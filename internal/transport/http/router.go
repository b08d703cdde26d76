// Package httptransport assembles the HTTP surface: public verification,
// authenticated admin issuance, health probes, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	certhandler "coursecert/internal/certification/handler"
	"coursecert/internal/platform/health"
	"coursecert/internal/platform/middleware"
	verifyhandler "coursecert/internal/verification/handler"
)

// Deps carries the wired handlers and transport configuration.
type Deps struct {
	Certification *certhandler.Handler
	Verification  *verifyhandler.Handler
	Health        *health.Handler
	Logger        *slog.Logger

	// JWTSigningKey validates issuer tokens on the admin routes.
	JWTSigningKey string
	// AdminTimeout bounds admin requests; issuance waits on transaction mining
	// so this is much longer than the public timeout.
	AdminTimeout time.Duration
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.ContentTypeJSON)

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	// Public verification. No authentication: anyone holding a certificate
	// link can check it.
	r.Group(func(public chi.Router) {
		public.Use(middleware.Timeout(15 * time.Second))
		deps.Verification.Register(public)
	})

	// Admin issuance and revocation, restricted to the issuer role.
	adminTimeout := deps.AdminTimeout
	if adminTimeout <= 0 {
		adminTimeout = 3 * time.Minute
	}
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.Timeout(adminTimeout))
		admin.Use(middleware.RequireRole(deps.JWTSigningKey, middleware.RoleIssuer))
		deps.Certification.Register(admin)
	})

	return r
}

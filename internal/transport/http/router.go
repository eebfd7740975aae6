// Package httptransport is the thin HTTP layer over the domain services.
// Handlers decode, resolve the caller, delegate, and write the envelope; all
// business rules live in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountservice "identity-manager/internal/account/service"
	"identity-manager/internal/application"
	"identity-manager/internal/audit"
	"identity-manager/internal/phone"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/internal/pubsub"
)

// Handler bundles the registry's domain services.
type Handler struct {
	accounts *accountservice.Service
	phone    *phone.Service
	apps     *application.Service
	pubsub   *pubsub.Service
	audit    *audit.Service
	runtime  *config.Runtime
	auth     *middleware.Authenticator
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewHandler(
	accounts *accountservice.Service,
	phoneSvc *phone.Service,
	apps *application.Service,
	pubsubSvc *pubsub.Service,
	auditSvc *audit.Service,
	runtime *config.Runtime,
	auth *middleware.Authenticator,
	m *metrics.Metrics,
	log *slog.Logger,
) *Handler {
	return &Handler{
		accounts: accounts,
		phone:    phoneSvc,
		apps:     apps,
		pubsub:   pubsubSvc,
		audit:    auditSvc,
		runtime:  runtime,
		auth:     auth,
		metrics:  m,
		log:      log,
	}
}

// Process-wide request ceiling; domain 429 windows live in the services.
const (
	throttleRPS   = 100
	throttleBurst = 200
)

// NewRouter wires the registry's public and internal surfaces.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.log))
	r.Use(middleware.Throttle(throttleRPS, throttleBurst))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(h.metrics))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Internal surface: service-to-service calls, reachable only inside the
	// deployment network.
	r.Post("/internal/certify_phone_number_sha2", h.handleCertifyPhoneNumber)
	r.Post("/replica/snapshot", h.handleReplicaSnapshot)
	r.Get("/backup/{id}", h.handleBackup)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireCaller)

		r.Post("/account", h.handleCreateAccount)
		r.Get("/account", h.handleGetAccount)
		r.Put("/account", h.handleUpdateAccount)
		r.Put("/account/name", h.handleUpdateAccountName)
		r.Delete("/account", h.handleRemoveAccount)
		r.Post("/account/recover", h.handleRecoverAccount)
		r.Post("/account/restore", h.handleRestoreAccounts)
		r.Get("/account/by_anchor/{anchor}", h.handleGetAccountByAnchor)
		r.Get("/account/by_principal/{principal}", h.handleGetAccountByPrincipal)

		r.Post("/access_points", h.handleCreateAccessPoint)
		r.Get("/access_points", h.handleReadAccessPoints)
		r.Put("/access_points", h.handleUpdateAccessPoint)
		r.Delete("/access_points", h.handleRemoveAccessPoint)
		r.Post("/access_points/use", h.handleUseAccessPoints)

		r.Post("/personas", h.handleCreatePersona)
		r.Get("/personas", h.handleReadPersonas)
		r.Put("/personas", h.handleUpdatePersona)
		r.Delete("/personas/{id}", h.handleRemovePersona)
		r.Delete("/personas", h.handleRemoveNFIDPersonas)

		r.Post("/phone/post_token", h.handlePostToken)
		r.Post("/phone/verify_token", h.handleVerifyToken)
		r.Post("/phone/validate", h.handleValidatePhone)
		r.Post("/phone/remove_account", h.handleRemoveAccountByPhone)

		r.Post("/applications", h.handleCreateApplication)
		r.Get("/applications", h.handleReadApplications)
		r.Delete("/applications/{name}", h.handleDeleteApplication)
		r.Get("/applications/is_over_the_limit", h.handleIsOverTheApplicationLimit)

		r.Post("/topics", h.handleCreateTopic)
		r.Delete("/topics/{name}", h.handleDeleteTopic)
		r.Post("/topics/{name}/messages", h.handlePostMessages)
		r.Get("/topics/{name}/messages", h.handleGetMessages)
		r.Post("/topics/{name}/messages/drain", h.handleDrainMessages)

		r.Post("/configure", h.handleConfigure)
		r.Get("/configure", h.handleDescribeConfig)
		r.Get("/audit/{principal}", h.handleAuditTrail)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// decode reads a JSON body into dst. An empty body is not an error; handlers
// validate required fields themselves.
func decode[T any](r *http.Request, dst *T) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/internal/verifier"
	"identity-manager/pkg/response"
)

// VerifierHandler is the HTTP layer of the standalone verifier service.
type VerifierHandler struct {
	svc     *verifier.Service
	auth    *middleware.Authenticator
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewVerifierHandler(svc *verifier.Service, auth *middleware.Authenticator, m *metrics.Metrics, log *slog.Logger) *VerifierHandler {
	return &VerifierHandler{svc: svc, auth: auth, metrics: m, log: log}
}

func (h *VerifierHandler) NewRouter() http.Handler {
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

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireCaller)
		r.Post("/configure", h.handleConfigure)
		r.Post("/generate_pn_token", h.handleGeneratePNToken)
		r.Post("/resolve_token", h.handleResolveToken)
		r.Get("/is_phone_number_approved/{principal}", h.handleIsPhoneNumberApproved)
		r.Get("/is_owner/{principal}", h.handleIsOwner)
	})

	return r
}

func (h *VerifierHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *VerifierHandler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req verifier.ConfigureRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.svc.Configure(r.Context(), caller, req))
}

type generateTokenRequest struct {
	Domain string `json:"domain"`
}

func (h *VerifierHandler) handleGeneratePNToken(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[string]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.svc.GeneratePNToken(r.Context(), caller, req.Domain))
}

type resolveTokenRequest struct {
	Token string `json:"token"`
}

func (h *VerifierHandler) handleResolveToken(w http.ResponseWriter, r *http.Request) {
	var req resolveTokenRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[verifier.Credential]("Invalid request body."))
		return
	}
	response.Write(w, h.svc.ResolveToken(r.Context(), req.Token))
}

func (h *VerifierHandler) handleIsPhoneNumberApproved(w http.ResponseWriter, r *http.Request) {
	response.Write(w, h.svc.IsPhoneNumberApproved(r.Context(), chi.URLParam(r, "principal")))
}

func (h *VerifierHandler) handleIsOwner(w http.ResponseWriter, r *http.Request) {
	response.Write(w, h.svc.IsOwner(r.Context(), chi.URLParam(r, "principal")))
}

package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identity-manager/internal/application"
	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
)

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req application.Application
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[[]application.Application]("Invalid request body."))
		return
	}
	if req.UserLimit == 0 {
		req.UserLimit = application.DefaultUserLimit
	}
	response.Write(w, h.apps.CreateApplication(r.Context(), req))
}

func (h *Handler) handleReadApplications(w http.ResponseWriter, r *http.Request) {
	response.Write(w, h.apps.ReadApplications(r.Context()))
}

func (h *Handler) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	response.Write(w, h.apps.DeleteApplication(r.Context(), chi.URLParam(r, "name")))
}

func (h *Handler) handleIsOverTheApplicationLimit(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	caller := middleware.Caller(r.Context())
	acc := h.accounts.GetAccount(r.Context(), caller)
	if acc.Data == nil {
		// No account means no personas, so the caller is under every limit.
		response.Write(w, response.Ok(false))
		return
	}
	response.Write(w, h.apps.IsOverTheApplicationLimit(r.Context(), *acc.Data, domain))
}

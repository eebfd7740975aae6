package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identity-manager/internal/audit"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/middleware"
	"identity-manager/internal/replica"
	"identity-manager/pkg/response"
)

// handleConfigure applies runtime settings. Until an operator is assigned
// any authenticated caller may configure (deployment bootstrap); afterwards
// the operator alone may.
func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if middleware.IsAnonymous(caller) {
		response.Write(w, response.Unauthorized[bool]())
		return
	}
	if op := h.runtime.Snapshot().Operator; op != "" && caller != op {
		response.Write(w, response.Unauthorized[bool]())
		return
	}

	var req config.ConfigureRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	h.runtime.Apply(req)
	h.log.InfoContext(r.Context(), "runtime configured",
		"request_id", middleware.GetRequestID(r.Context()),
		"caller", caller,
	)
	response.Write(w, response.Ok(true))
}

func (h *Handler) handleDescribeConfig(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	cfg := h.runtime.Snapshot()
	if cfg.Operator != "" && caller != cfg.Operator {
		response.Write(w, response.Unauthorized[map[string]any]())
		return
	}
	response.Write(w, response.Ok(cfg.Describe()))
}

type certifyRequest struct {
	Principal string `json:"principal"`
	Domain    string `json:"domain"`
}

// handleCertifyPhoneNumber is the verifier's entry point into the registry.
func (h *Handler) handleCertifyPhoneNumber(w http.ResponseWriter, r *http.Request) {
	var req certifyRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[string]("Invalid request body."))
		return
	}
	response.Write(w, h.accounts.CertifyPhoneNumberSha2(r.Context(), req.Principal, req.Domain))
}

// handleReplicaSnapshot accepts a pushed snapshot when this instance runs as
// a replica.
func (h *Handler) handleReplicaSnapshot(w http.ResponseWriter, r *http.Request) {
	var wire []replica.WireAccount
	if err := decode(r, &wire); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	if err := h.accounts.AcceptSnapshot(r.Context(), replica.FromWire(wire)); err != nil {
		h.log.ErrorContext(r.Context(), "accept snapshot", "error", err.Error())
		response.Write(w, response.Error[bool](500, "Unable to accept snapshot."))
		return
	}
	response.Write(w, response.Ok(true))
}

// handleAuditTrail lists the recorded events for a principal. Operator-only.
func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	cfg := h.runtime.Snapshot()
	if cfg.Operator == "" || caller != cfg.Operator {
		response.Write(w, response.Unauthorized[[]audit.Event]())
		return
	}
	events, err := h.audit.List(r.Context(), chi.URLParam(r, "principal"))
	if err != nil {
		response.Write(w, response.Error[[]audit.Event](500, "Unable to read audit trail."))
		return
	}
	response.Write(w, response.Ok(events))
}

// handleBackup serves the current snapshot to a restoring instance.
func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.AllAccounts(r.Context())
	if err != nil {
		response.Write(w, response.Error[[]replica.WireAccount](500, "Unable to read Accounts."))
		return
	}
	response.Write(w, response.Ok(replica.ToWire(accounts)))
}

package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"identity-manager/internal/account/models"
	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
)

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.CreateAccount(r.Context(), caller))
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.GetAccount(r.Context(), caller))
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.AccountUpdateRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[models.Account]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.UpdateAccount(r.Context(), caller, req))
}

type updateNameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleUpdateAccountName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[models.Account]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.UpdateAccountName(r.Context(), caller, req.Name))
}

func (h *Handler) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RemoveAccount(r.Context(), caller))
}

type recoverRequest struct {
	Anchor uint64 `json:"anchor"`
	Proof  string `json:"proof"`
}

func (h *Handler) handleRecoverAccount(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[models.Account]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RecoverAccount(r.Context(), caller, req.Anchor, req.Proof))
}

type restoreRequest struct {
	Source           string `json:"source"`
	BackupCanisterID string `json:"backup_canister_id"`
}

func (h *Handler) handleRestoreAccounts(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	if req.BackupCanisterID == "" {
		req.BackupCanisterID = h.runtime.Snapshot().BackupCanisterID
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RestoreAccounts(r.Context(), caller, req.Source, req.BackupCanisterID))
}

func (h *Handler) handleGetAccountByAnchor(w http.ResponseWriter, r *http.Request) {
	anchor, err := strconv.ParseUint(chi.URLParam(r, "anchor"), 10, 64)
	if err != nil {
		response.Write(w, response.NotFound[models.Account]("Anchor not registered."))
		return
	}
	response.Write(w, h.accounts.GetAccountByAnchor(r.Context(), anchor))
}

func (h *Handler) handleGetAccountByPrincipal(w http.ResponseWriter, r *http.Request) {
	principal := chi.URLParam(r, "principal")
	response.Write(w, h.accounts.GetAccountByPrincipal(r.Context(), principal))
}

func (h *Handler) handleCreateAccessPoint(w http.ResponseWriter, r *http.Request) {
	var req models.AccessPointRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[[]models.AccessPoint]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.CreateAccessPoint(r.Context(), caller, req))
}

func (h *Handler) handleReadAccessPoints(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.ReadAccessPoints(r.Context(), caller))
}

func (h *Handler) handleUpdateAccessPoint(w http.ResponseWriter, r *http.Request) {
	var req models.AccessPointRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[[]models.AccessPoint]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.UpdateAccessPoint(r.Context(), caller, req))
}

type removeAccessPointRequest struct {
	PubKey string `json:"pub_key"`
}

func (h *Handler) handleRemoveAccessPoint(w http.ResponseWriter, r *http.Request) {
	var req removeAccessPointRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[[]models.AccessPoint]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RemoveAccessPoint(r.Context(), caller, req.PubKey))
}

type useAccessPointsRequest struct {
	PubKeys []string `json:"pub_keys"`
}

func (h *Handler) handleUseAccessPoints(w http.ResponseWriter, r *http.Request) {
	var req useAccessPointsRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[[]models.AccessPoint]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.UseAccessPoints(r.Context(), caller, req.PubKeys))
}

func (h *Handler) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	var req models.PersonaRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[models.Account]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.CreatePersona(r.Context(), caller, req))
}

func (h *Handler) handleReadPersonas(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.ReadPersonas(r.Context(), caller))
}

func (h *Handler) handleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	var req models.PersonaRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[models.Account]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.UpdatePersona(r.Context(), caller, req))
}

func (h *Handler) handleRemovePersona(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RemovePersona(r.Context(), caller, chi.URLParam(r, "id")))
}

func (h *Handler) handleRemoveNFIDPersonas(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.accounts.RemoveNFIDPersonas(r.Context(), caller))
}

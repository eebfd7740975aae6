package httptransport

import (
	"net/http"

	"identity-manager/internal/phone"
	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
)

func (h *Handler) handlePostToken(w http.ResponseWriter, r *http.Request) {
	var req phone.TokenRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.phone.PostToken(r.Context(), caller, req))
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.phone.VerifyToken(r.Context(), caller, req.Token))
}

func (h *Handler) handleValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req phone.ValidateRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	response.Write(w, h.phone.ValidatePhone(r.Context(), req))
}

type removeByPhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) handleRemoveAccountByPhone(w http.ResponseWriter, r *http.Request) {
	var req removeByPhoneRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[bool]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.phone.RemoveAccountByPhoneNumber(r.Context(), caller, req.PhoneNumber))
}

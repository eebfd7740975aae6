package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identity-manager/internal/platform/middleware"
	"identity-manager/pkg/response"
)

type createTopicRequest struct {
	Topic string `json:"topic"`
}

func (h *Handler) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[string]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.pubsub.CreateTopic(r.Context(), caller, req.Topic))
}

func (h *Handler) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.pubsub.DeleteTopic(r.Context(), caller, chi.URLParam(r, "name")))
}

type postMessagesRequest struct {
	Messages []string `json:"messages"`
}

func (h *Handler) handlePostMessages(w http.ResponseWriter, r *http.Request) {
	var req postMessagesRequest
	if err := decode(r, &req); err != nil {
		response.Write(w, response.BadRequest[string]("Invalid request body."))
		return
	}
	caller := middleware.Caller(r.Context())
	response.Write(w, h.pubsub.PostMessages(r.Context(), caller, chi.URLParam(r, "name"), req.Messages))
}

func (h *Handler) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.pubsub.GetMessages(r.Context(), caller, chi.URLParam(r, "name")))
}

func (h *Handler) handleDrainMessages(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	response.Write(w, h.pubsub.DrainMessages(r.Context(), caller, chi.URLParam(r, "name")))
}

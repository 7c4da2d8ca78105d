package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/session"
)

type CreateSessionResponse struct {
	ID       string           `json:"id"`
	Greeting string           `json:"greeting"`
	Profile  learning.Profile `json:"profile"`
}

type MessageRequest struct {
	Content string `json:"content"`
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := deps.Tutor.Sessions().Create()
		writeJSON(w, http.StatusCreated, CreateSessionResponse{
			ID:       s.ID,
			Greeting: session.Greeting,
			Profile:  s.Profile(),
		})
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Tutor.Sessions().Get(chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Tutor.Sessions().Delete(chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handlePostMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}

		reply, err := deps.Tutor.Respond(r.Context(), chi.URLParam(r, "id"), req.Content)
		switch {
		case errors.Is(err, session.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		case errors.Is(err, session.ErrBusy):
			httpError(w, http.StatusConflict, "conflict", "a reply is already being generated for this session")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "failed to respond: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

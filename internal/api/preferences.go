package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/tutor/internal/preferences"
)

func handleGetPreferences(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Preferences.Get(chi.URLParam(r, "id"))
		if errors.Is(err, preferences.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no preferences saved for this user")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get preferences: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handlePutPreferences(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req preferences.Preferences
		if !decodeBody(w, r, &req) {
			return
		}

		saved, err := deps.Preferences.Save(chi.URLParam(r, "id"), req)
		if errors.Is(err, preferences.ErrInvalid) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save preferences: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleDeletePreferences(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Preferences.Delete(chi.URLParam(r, "id"))
		if errors.Is(err, preferences.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no preferences saved for this user")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete preferences: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kalambet/tutor/internal/learning"
)

// The engine endpoints are stateless: the caller passes the profile in and
// gets the updated value back.

type ProfileUpdateRequest struct {
	Message string          `json:"message"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

type ProfileResponse struct {
	Profile learning.Profile `json:"profile"`
}

type AdaptRequest struct {
	Text    string          `json:"text"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

type MetaRequest struct {
	Message string          `json:"message"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

type MetaResponse struct {
	IsMeta bool   `json:"is_meta"`
	Answer string `json:"answer,omitempty"`
}

// resolveProfile returns the default profile when the caller sent none and
// otherwise the parsed, validated caller profile.
func resolveProfile(raw json.RawMessage) (learning.Profile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return learning.NewProfile(), nil
	}
	return learning.ParseProfile(raw)
}

func writeProfileError(w http.ResponseWriter, err error) {
	if errors.Is(err, learning.ErrInvalidProfile) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := resolveProfile(req.Profile)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Profile: learning.Update(req.Message, p)})
}

func handleAdapt(w http.ResponseWriter, r *http.Request) {
	var req AdaptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := resolveProfile(req.Profile)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, learning.Adapt(req.Text, p))
}

func handleMeta(w http.ResponseWriter, r *http.Request) {
	var req MetaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := resolveProfile(req.Profile)
	if err != nil {
		writeProfileError(w, err)
		return
	}

	resp := MetaResponse{IsMeta: learning.IsMetaQuestion(req.Message)}
	if resp.IsMeta {
		resp.Answer = learning.RenderMetaAnswer(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

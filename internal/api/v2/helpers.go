package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 10 << 20

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "rest_too_large", "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "rest_invalid_json", "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// idParam parses a positive numeric URL parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(urlParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "rest_post_invalid_id", "invalid post ID")
		return 0, false
	}
	return id, true
}

// errorResponse is the protocol's error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := errorResponse{Code: code, Message: message}
	resp.Data.Status = status
	writeJSON(w, status, resp)
}

// writeSyndicationError maps an error to a status by its kind.
func writeSyndicationError(w http.ResponseWriter, err error) {
	switch syndication.KindOf(err) {
	case syndication.KindNotFound:
		writeError(w, http.StatusNotFound, "rest_not_found", err.Error())
	case syndication.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, "rest_forbidden", err.Error())
	case syndication.KindRemoteRejected:
		writeError(w, http.StatusBadRequest, "rest_invalid_param", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "rest_error", "internal error")
	}
}

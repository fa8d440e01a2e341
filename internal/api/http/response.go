package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrResponse is the error body of every non-2xx response.
type ErrResponse struct {
	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondErrInvalidRequest(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, &ErrResponse{
		StatusText: "Invalid request.",
		ErrorText:  err.Error(),
	})
}

func respondErrNotFound(w http.ResponseWriter) {
	respondJSON(w, http.StatusNotFound, &ErrResponse{
		StatusText: "Resource not found.",
	})
}

func respondErrInternal(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusInternalServerError, &ErrResponse{
		StatusText: http.StatusText(http.StatusInternalServerError),
		ErrorText:  err.Error(),
	})
}

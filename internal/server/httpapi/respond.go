package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akarpov87/invoicehub/internal/errs"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// writeError maps sentinel errors onto HTTP statuses. Anything unrecognized
// (and any upstream provider failure) is reported as a generic 500 so
// internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid Credentials")
	case errors.Is(err, errs.ErrNotOwner):
		writeMessage(w, http.StatusUnauthorized, "Not authorized to access this resource")
	case errors.Is(err, errs.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "Already exists")
	case errors.Is(err, errs.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, "Too many attempts, try again later")
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

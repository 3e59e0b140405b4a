package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/store"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeError maps err to a status code and a JSON body. Internal errors
// are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeErrorBody(w, http.StatusNotFound, string(errs.ErrCodeProjectNotFound), "project not found")
		return
	}

	code := errs.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeErrorBody(w, status, string(errs.ErrCodeInternal), "internal error")
		return
	}
	writeErrorBody(w, status, string(code), errs.UserMessage(err))
}

func statusFor(code errs.Code) int {
	if code.Invalid() {
		return http.StatusBadRequest
	}
	switch code {
	case errs.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errs.ErrCodeDecodeFailed, errs.ErrCodeFileNotFound:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotFound, errs.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case errs.ErrCodeNetwork:
		return http.StatusBadGateway
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

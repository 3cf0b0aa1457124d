package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"go.uber.org/zap"
)

// envelope is the body of every endpoint except /get-device-list,
// /health and /metrics.
type envelope struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Result: result})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, code, envelope{Success: false, Error: err.Error()})
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, core.ErrDeviceNotFound) {
		return http.StatusNotFound
	}
	switch core.CategoryOf(err) {
	case core.ErrCategoryArgument:
		return http.StatusBadRequest
	case core.ErrCategoryApp:
		return http.StatusNotFound
	case core.ErrCategoryState:
		return http.StatusConflict
	case core.ErrCategoryDisabled:
		return http.StatusForbidden
	case core.ErrCategoryTimeout:
		return http.StatusGatewayTimeout
	case core.ErrCategoryConnection:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// required returns a non-empty query parameter.
func required(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", core.Missing(name)
	}
	return v, nil
}

// intParams parses required integer query parameters in order.
func intParams(r *http.Request, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := required(r, name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, core.Invalid(name, v, err)
		}
		out[i] = n
	}
	return out, nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.Invalid(name, v, err)
	}
	return b, nil
}

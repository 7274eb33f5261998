package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already encoded body.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps an error code to an HTTP status. Internal errors keep
// their message out of the response.
func writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	status := statusFor(code)
	body := errorBody{Error: string(code)}
	if code == "" {
		body.Error = string(errs.ErrCodeInternal)
	}
	if status != http.StatusInternalServerError {
		body.Message = errs.UserMessage(err)
	}
	writeJSON(w, status, body)
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeNotFound, errs.ErrCodeRowNotFound, errs.ErrCodeColumnNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPath,
		errs.ErrCodeEmptyInput, errs.ErrCodeSchemaMismatch, errs.ErrCodeDuplicateKey:
		return http.StatusBadRequest
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// intParam reads a non-negative integer query parameter, falling back to
// def when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

// listParam splits a comma-separated query parameter, dropping blanks. It
// returns nil when the parameter is absent or empty.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range strings.Split(r.URL.Query().Get(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

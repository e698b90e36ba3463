package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"recount/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseCategoryParam returns nil when the parameter is absent.
func parseCategoryParam(r *http.Request, name string) (*core.Category, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	c, err := core.ParseCategory(v)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, v, err)
	}
	return &c, nil
}

// parseLimit reads ?limit=, falling back to def and capping at maxLimit.
func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", v)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

// sanitizeInput drops control characters other than tab and newline and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// aliasStatus maps alias table errors to HTTP status codes.
func aliasStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrAliasConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyPhrase),
		errors.Is(err, core.ErrCanonicalAlias),
		errors.Is(err, core.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

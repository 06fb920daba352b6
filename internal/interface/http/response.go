package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   *APIError     `json:"error,omitempty"`
	Meta    *ResponseMeta `json:"meta,omitempty"`
}

// APIError is the client-facing error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta carries response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    &ResponseMeta{Timestamp: time.Now().UTC(), Version: "v1"},
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Error: &APIError{Code: code, Message: message},
		Meta:  &ResponseMeta{Timestamp: time.Now().UTC()},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// statusOf maps a domain error to an HTTP status and code. Partial failure
// is checked first because it wraps the kind of the step that failed.
func statusOf(err error) (int, string) {
	switch {
	case shared.IsPartialFailure(err):
		return http.StatusInternalServerError, "partial_failure"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "conflict"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeJSONError(w, status, code, shared.ClientMessage(err))
}

// writeError reports err to the client and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", logger.Truncate(r.URL.RawQuery)).
			Msg("request failed")
	}
	writeAPIError(w, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING
// ══════════════════════════════════════════════════════════════════════════════

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.Validation("http", "Decode", "invalid request body: "+err.Error())
	}
	return nil
}

// Default paging when the query string names none.
const (
	defaultPage  = 1
	defaultLimit = 10
)

// pagingFrom reads page, limit, sort and direction.
func pagingFrom(r *http.Request) (shared.Paging, error) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		return shared.Paging{}, err
	}
	if page > shared.MaxPage {
		return shared.Paging{}, shared.Validation("http", "Query", fmt.Sprintf("page must not exceed %d", shared.MaxPage))
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		return shared.Paging{}, err
	}
	q := r.URL.Query()
	return shared.Paging{
		Page:      page,
		Limit:     limit,
		Sort:      q.Get("sort"),
		Direction: shared.Direction(q.Get("direction")),
	}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, shared.Validation("http", "Query", fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

// queryList accepts both repeated keys and comma-separated values.
func queryList[T ~string](r *http.Request, key string) []T {
	var out []T
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, T(strings.ToUpper(v)))
			}
		}
	}
	return out
}

// queryRange parses "start,end".
func queryRange[T any](r *http.Request, key string, parse func(string) (T, error)) (start, end T, ok bool, err error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return start, end, false, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return start, end, false, shared.Validation("http", "Query", key+" must be start,end")
	}
	if start, err = parse(strings.TrimSpace(parts[0])); err != nil {
		return start, end, false, shared.Validation("http", "Query", key+": "+err.Error())
	}
	if end, err = parse(strings.TrimSpace(parts[1])); err != nil {
		return start, end, false, shared.Validation("http", "Query", key+": "+err.Error())
	}
	return start, end, true, nil
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339, s) }

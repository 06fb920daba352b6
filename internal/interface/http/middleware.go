package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEWER
// ══════════════════════════════════════════════════════════════════════════════

// Identity headers set by the auth gateway in front of the API.
// X-Member-Type is informational only; roles are read from the member row.
const (
	HeaderMemberID   = "X-Member-ID"
	HeaderMemberType = "X-Member-Type"
)

type contextKey string

const contextKeyViewer contextKey = "viewer"

// Viewer is the authenticated caller. A zero Viewer is anonymous.
type Viewer struct {
	ID   string
	Type member.Type
}

// MemberLookup resolves a viewer id to its member row.
type MemberLookup interface {
	GetByID(ctx context.Context, id string, statuses ...member.Status) (*member.Member, error)
}

var (
	errNotAuthenticated = shared.NewDomainError("http", "Authenticate", shared.ErrUnauthorized, shared.MsgNotAuthenticated)
	errAdminOnly        = shared.NewDomainError("http", "Authorize", shared.ErrForbidden, shared.MsgNotAllowed)
	errBadViewerID      = shared.Validation("http", "Authenticate", "X-Member-ID must be a UUID")
)

func viewerFrom(ctx context.Context) Viewer {
	v, _ := ctx.Value(contextKeyViewer).(Viewer)
	return v
}

func viewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := Viewer{
			ID:   strings.TrimSpace(r.Header.Get(HeaderMemberID)),
			Type: member.Type(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderMemberType)))),
		}
		if v.ID != "" {
			id, err := uuid.Parse(v.ID)
			if err != nil {
				writeAPIError(w, errBadViewerID)
				return
			}
			v.ID = id.String()
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyViewer, v)))
	})
}

func requireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if viewerFrom(r.Context()).ID == "" {
			writeAPIError(w, errNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin lets through an ACTIVE member whose stored type is ADMIN.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		if v.ID == "" {
			writeAPIError(w, errNotAuthenticated)
			return
		}
		if s.deps.MemberLookup == nil {
			writeAPIError(w, errAdminOnly)
			return
		}

		m, err := s.deps.MemberLookup.GetByID(r.Context(), v.ID, member.StatusActive)
		switch {
		case shared.IsNotFound(err):
			writeAPIError(w, errAdminOnly)
		case err != nil:
			s.writeError(w, r, err)
		case m.Type != member.TypeAdmin:
			writeAPIError(w, errAdminOnly)
		default:
			v.Type = m.Type
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyViewer, v)))
		}
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING, METRICS & RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

// observe logs every request and reports it under its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		var route string
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveHTTP(route, status, duration)
		}

		ev := s.logger.Info()
		if status >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("duration", duration).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("member_id", r.Header.Get(HeaderMemberID)).
			Msg("http request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("panic recovered")
				writeJSONError(w, http.StatusInternalServerError, "internal_error", shared.MsgSomethingWentWrong)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

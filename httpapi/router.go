// Package httpapi exposes a read-only HTTP view of a runtime: unit
// statuses, the changes a navigation would cause, and the error catalog the
// formatted error messages link to.
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/logging"
)

// ChangesResponse lists unit names per change group.
type ChangesResponse struct {
	Location  string   `json:"location"`
	ToLoad    []string `json:"toLoad"`
	ToMount   []string `json:"toMount"`
	ToUnmount []string `json:"toUnmount"`
}

// ErrorCodeResponse documents one catalog entry.
type ErrorCodeResponse struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	Args      []string `json:"args,omitempty"`
	Formatted string   `json:"formatted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	rt     *mfe.Runtime
	logger mfe.Logger
}

// NewRouter builds the HTTP handler for rt. A nil logger discards request logs.
func NewRouter(rt *mfe.Runtime, logger mfe.Logger) chi.Router {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &handler{rt: rt, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.health)
	r.Route("/units", func(r chi.Router) {
		r.Get("/", h.listUnits)
		r.Get("/{name}", h.getUnit)
	})
	r.Get("/changes", h.changes)
	r.Get("/error", h.errorCode)
	r.Get("/error/", h.errorCode)

	return r
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()))
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.rt.Snapshot())
}

func (h *handler) getUnit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	u, ok := h.rt.Unit(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unit not found: " + name})
		return
	}
	writeJSON(w, http.StatusOK, mfe.SnapshotOf(u))
}

func (h *handler) changes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("location")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "location query parameter is required"})
		return
	}
	loc, err := url.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid location: " + err.Error()})
		return
	}

	changes := h.rt.Changes(loc)
	writeJSON(w, http.StatusOK, ChangesResponse{
		Location:  loc.String(),
		ToLoad:    names(changes.ToLoad),
		ToMount:   names(changes.ToMount),
		ToUnmount: names(changes.ToUnmount),
	})
}

func (h *handler) errorCode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, err := strconv.Atoi(query.Get("code"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code query parameter must be a number"})
		return
	}

	args := query["arg"]
	anyArgs := make([]any, len(args))
	for i, arg := range args {
		anyArgs[i] = arg
	}

	message, ok := mfe.CatalogMessage(code, anyArgs...)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown error code " + strconv.Itoa(code)})
		return
	}

	writeJSON(w, http.StatusOK, ErrorCodeResponse{
		Code:      code,
		Message:   message,
		Args:      args,
		Formatted: h.rt.Config().Formatter().Format(code, message, anyArgs...),
	})
}

func names(units []*mfe.Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name())
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

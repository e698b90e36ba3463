package http

import (
	"context"
	"net/http"
	"time"

	"recount/internal/log"
	"recount/internal/middleware/security"
	"recount/internal/middleware/trace"
	"recount/internal/session"
	"recount/internal/store"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
	maxBodyBytes       = 64 << 10
	exportPrefix       = "recount-history"
	eventsExportPrefix = "recount-events"
)

// Server exposes a counting session as a JSON API.
type Server struct {
	http.Server
	session *session.Session
	events  store.EventLister
	logger  *log.Logger
	tracer  *trace.Middleware
	now     func() time.Time
}

// NewServer wires routes for sess. events may be nil when the backend keeps
// no audit log.
func NewServer(addr string, sess *session.Session, events store.EventLister, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		session: sess,
		events:  events,
		logger:  logger,
		tracer:  trace.NewMiddleware(logger, security.NewClientIP().Extract),
		now:     time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /utterances", s.handleUtterance)
	mux.HandleFunc("POST /controls", s.handleControl)
	mux.HandleFunc("GET /tally", s.handleTally)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)

	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("DELETE /history", s.handleClearHistory)
	mux.HandleFunc("GET /export/history.csv", s.handleExportCSV)
	mux.HandleFunc("GET /export/history.log", s.handleExportLog)
	mux.HandleFunc("GET /export/events.log", s.handleExportEvents)

	mux.HandleFunc("GET /aliases", s.handleListAliases)
	mux.HandleFunc("POST /aliases", s.handleAddAlias)
	mux.HandleFunc("DELETE /aliases", s.handleRemoveAlias)

	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.HandleFunc("POST /session/end", s.handleEndSession)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	var h http.Handler = mux
	h = security.Headers(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 once the session has ended.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.session.Snapshot().Active {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "session ended"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracer.GetMetrics())
}

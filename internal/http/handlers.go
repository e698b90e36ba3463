package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"recount/internal/command"
	"recount/internal/core"
	"recount/internal/export"
	"recount/internal/log"
	"recount/internal/session"
)

type (
	utteranceRequest struct {
		Text string `json:"text"`
	}

	controlRequest struct {
		Action   string `json:"action"`
		Category string `json:"category,omitempty"`
		Amount   int64  `json:"amount,omitempty"`
	}

	aliasRequest struct {
		Phrase   string `json:"phrase"`
		Category string `json:"category"`
	}

	outcomeResponse struct {
		Mutation core.MutationKind  `json:"mutation"`
		Category *core.Category     `json:"category,omitempty"`
		Amount   int64              `json:"amount,omitempty"`
		Changed  bool               `json:"changed"`
		Entry    *core.HistoryEntry `json:"entry,omitempty"`
		View     session.View       `json:"view"`
	}

	historyResponse struct {
		Entries []core.HistoryEntry `json:"entries"`
	}

	aliasesResponse struct {
		Aliases []core.AliasEntry `json:"aliases"`
	}

	eventsResponse struct {
		Events []core.Event `json:"events"`
	}
)

func newOutcomeResponse(out session.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Mutation: out.Mutation.Kind,
		Changed:  out.Changed,
		Entry:    out.Entry,
		View:     out.View,
	}
	switch out.Mutation.Kind {
	case core.MutationIncrement:
		c := out.Mutation.Category
		resp.Category = &c
		resp.Amount = out.Mutation.Amount
	case core.MutationReset, core.MutationSetLockout, core.MutationClearLockout:
		c := out.Mutation.Category
		resp.Category = &c
	}
	return resp
}

// actionNeedsCategory lists the controls that act on a single category.
func actionNeedsCategory(a command.Action) bool {
	switch a {
	case command.ActionIncrement, command.ActionReset, command.ActionLockout, command.ActionUnlock:
		return true
	default:
		return false
	}
}

const errNoActiveSession = "no active session"

func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := sanitizeInput(req.Text)
	if text == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}

	out := s.session.HandleUtterance(r.Context(), text)
	if out.Inactive {
		writeError(w, http.StatusConflict, errNoActiveSession)
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(out))
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action, err := command.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b := command.Button{Action: action, Amount: req.Amount}
	if actionNeedsCategory(action) {
		if strings.TrimSpace(req.Category) == "" {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("category is required for %s", action))
			return
		}
		c, err := core.ParseCategory(req.Category)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("category %q: %v", req.Category, err))
			return
		}
		b.Category = c
	}

	out := s.session.Press(r.Context(), b)
	if out.Inactive {
		writeError(w, http.StatusConflict, errNoActiveSession)
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(out))
}

func (s *Server) handleTally(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCategoryParam(r, "category")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	entries := s.session.History(filter)
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.session.ClearHistory()
	log.FromContext(r.Context()).InfoContext(r.Context(), "History cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "text/csv; charset=utf-8", exportPrefix, "csv", func(buf io.Writer) error {
		return export.WriteCSV(buf, s.session.History(nil))
	})
}

func (s *Server) handleExportLog(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "text/plain; charset=utf-8", exportPrefix, "log", func(buf io.Writer) error {
		return export.WriteLog(buf, s.session.History(nil))
	})
}

func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event log not available for this backend")
		return
	}
	s.writeExport(w, r, "text/plain; charset=utf-8", eventsExportPrefix, "log", func(buf io.Writer) error {
		events, err := s.events.ListEvents(r.Context(), 0)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		return export.WriteEvents(buf, events)
	})
}

// writeExport renders into memory first so a failure still yields a clean
// error response.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, contentType, prefix, ext string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	name := export.FileName(prefix, ext, s.now())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListAliases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, aliasesResponse{Aliases: s.session.Aliases()})
}

func (s *Server) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("category %q: %v", req.Category, err))
		return
	}
	phrase := sanitizeInput(req.Phrase)
	if err := s.session.AddAlias(r.Context(), phrase, c); err != nil {
		writeError(w, aliasStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, core.AliasEntry{Phrase: core.NormalizePhrase(phrase), Category: c})
}

func (s *Server) handleRemoveAlias(w http.ResponseWriter, r *http.Request) {
	phrase := sanitizeInput(r.URL.Query().Get("phrase"))
	removed, err := s.session.RemoveAlias(r.Context(), phrase)
	if err != nil {
		writeError(w, aliasStatus(err), err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("phrase %q is not bound", phrase))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultEventsLimit, maxEventsLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if s.events == nil {
		writeJSON(w, http.StatusOK, eventsResponse{Events: []core.Event{}})
		return
	}

	events, err := s.events.ListEvents(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list events", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "event log unavailable")
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.session.End(r.Context())
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

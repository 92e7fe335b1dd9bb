package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/autosave"
	"github.com/starford/ansuz/internal/mailer"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/notes"
	"github.com/starford/ansuz/internal/quota"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/websearch"
)

// Handler holds API route handlers.
type Handler struct {
	repo      *notes.Repository
	ctrl      *autosave.Controller
	broker    *sse.Broker
	mail      *mailer.Client
	search    *websearch.Client
	mailQuota *quota.DailyCounter
}

// NewHandler creates a new Handler. mail and search may be nil when the
// corresponding relay is not configured; their routes then answer 503.
func NewHandler(repo *notes.Repository, ctrl *autosave.Controller, broker *sse.Broker,
	mail *mailer.Client, search *websearch.Client, mailQuota *quota.DailyCounter) *Handler {
	return &Handler{
		repo:      repo,
		ctrl:      ctrl,
		broker:    broker,
		mail:      mail,
		search:    search,
		mailQuota: mailQuota,
	}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListNotes handles GET /api/notes. The filter query keeps only notes
// whose title contains it.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	items := h.repo.List(filter)
	out := make([]SidebarItem, len(items))
	for i, n := range items {
		out[i] = toSidebarItem(n)
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: out, Total: len(out)})
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.repo.Get(noteID(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes. The new note starts untitled and
// becomes active.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	note := h.repo.Create()
	h.broker.PublishNoteEvent("created", note.ID)
	writeJSON(w, http.StatusCreated, note)
}

// RenameNote handles PUT /api/notes/{id}/title.
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.repo.Rename(noteID(r), req.Title)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.broker.PublishNoteEvent("updated", note.ID)
	writeJSON(w, http.StatusOK, note)
}

// UpdateContent handles PUT /api/notes/{id}/content. Edits go through
// the autosave controller: the response says whether the edit was
// accepted, accepted-with-warning, or rejected for exceeding the
// character limit. A rejected response carries the content the editor
// must revert to.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.ctrl.Edit(noteID(r), req.Content)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if res.Status != autosave.StatusRejected {
		h.broker.PublishNoteEvent("updated", noteID(r))
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteNote handles DELETE /api/notes/{id}. The default note answers
// 403 and stays.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if err := h.repo.Delete(id); err != nil {
		switch {
		case errors.Is(err, apperr.ErrProtected):
			writeJSON(w, http.StatusForbidden, errorBody("default note cannot be deleted"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.broker.PublishNoteEvent("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// AddTag handles POST /api/notes/{id}/tags.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.repo.AddTag(noteID(r), req.Tag)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.broker.PublishNoteEvent("updated", note.ID)
	writeJSON(w, http.StatusOK, note)
}

// RemoveTag handles DELETE /api/notes/{id}/tags/{tag}.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	note, err := h.repo.RemoveTag(noteID(r), chi.URLParam(r, "tag"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.broker.PublishNoteEvent("updated", note.ID)
	writeJSON(w, http.StatusOK, note)
}

// GetView handles GET /api/view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.View())
}

// UpdateView handles PUT /api/view with a partial update. Switching the
// active note flushes the previous note's pending autosave batch.
func (h *Handler) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ActiveID != nil {
		if err := h.ctrl.SetActive(*req.ActiveID); err != nil {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
	}
	if req.Search != nil {
		h.repo.SetSearch(*req.Search)
	}
	if req.Collapsed != nil {
		h.repo.SetCollapsed(*req.Collapsed)
	}
	if req.Theme != nil {
		h.repo.SetTheme(models.Theme(*req.Theme))
	}
	writeJSON(w, http.StatusOK, h.repo.View())
}

// SendMail handles POST /api/mail: the contact-form relay with a per-IP
// daily limit.
func (h *Handler) SendMail(w http.ResponseWriter, r *http.Request) {
	if h.mail == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("mail relay is not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ip := clientIP(r)
	if _, ok := h.mailQuota.Take(ip); !ok {
		writeJSON(w, http.StatusTooManyRequests, errorBody("daily limit exceeded, please try again tomorrow"))
		return
	}

	msg := mailer.Message{
		FromEmail: req.FromEmail,
		Subject:   req.Subject,
		Body:      req.Message,
		IP:        ip,
		UserAgent: r.Header.Get("User-Agent"),
		Page:      r.Header.Get("Referer"),
	}
	if err := msg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.mail.Send(r.Context(), msg); err != nil {
		if errors.Is(err, apperr.ErrLimitExceeded) {
			writeJSON(w, http.StatusTooManyRequests, errorBody("too many messages for now, please wait and retry"))
			return
		}
		slog.Error("mail relay failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to send email"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// WebSearch handles GET /api/search: the SerpAPI proxy with a shared
// daily quota. The upstream payload is passed through verbatim.
func (h *Handler) WebSearch(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("search proxy is not configured"))
		return
	}
	q := r.URL.Query().Get("q")
	searchType := r.URL.Query().Get("type")

	raw, err := h.search.Search(r.Context(), q, searchType)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, errorBody("daily search limit reached, try again tomorrow"))
		case errors.Is(err, websearch.ErrPlanLimit):
			writeJSON(w, http.StatusPaymentRequired, errorBody("search plan limit has been reached"))
		default:
			slog.Error("search proxy failed", slog.String("query", q), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("search service unavailable"))
		}
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// clientIP resolves the caller address: first X-Forwarded-For hop, then
// the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

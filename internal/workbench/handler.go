package workbench

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/centrumkenaz/backend/internal/gate"
	"github.com/centrumkenaz/backend/internal/middleware"
	"github.com/centrumkenaz/backend/internal/platform"
	"github.com/centrumkenaz/backend/internal/recon"
	"github.com/centrumkenaz/backend/internal/services"
)

// Handler serves the /api/v1/workbench endpoints.
type Handler struct {
	svc       *Service
	sessions  *SessionStore
	validator *services.DecisionValidator
	log       *slog.Logger
}

func NewHandler(svc *Service, sessions *SessionStore, validator *services.DecisionValidator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, sessions: sessions, validator: validator, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) session(r *http.Request) (*Session, bool) {
	op := middleware.OperatorFromCtx(r.Context())
	if op == nil {
		return nil, false
	}
	return h.sessions.Get(op.ID), true
}

type viewInfo struct {
	ID    ViewID `json:"id"`
	Label string `json:"label"`
}

type viewsResponse struct {
	Views  []viewInfo `json:"views"`
	Active ViewID     `json:"active"`
	Scroll int        `json:"scroll"`
}

// GET /api/v1/workbench/views
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	active, scroll := sess.ViewState()
	resp := viewsResponse{Active: active, Scroll: scroll}
	for _, v := range Views() {
		resp.Views = append(resp.Views, viewInfo{ID: v, Label: Label(v)})
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectViewRequest struct {
	View   string `json:"view"`
	Scroll int    `json:"scroll"`
}

// PUT /api/v1/workbench/view
func (h *Handler) SelectView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req selectViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	sess.SelectView(ParseView(req.View), req.Scroll)
	active, scroll := sess.ViewState()
	writeJSON(w, http.StatusOK, map[string]any{"active": active, "scroll": scroll})
}

// GET /api/v1/workbench/views/{view}/rows
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	view := ParseView(r.PathValue("view"))
	payload, err := h.svc.LoadRows(r.Context(), sess, view)
	if err != nil {
		if errors.Is(err, platform.ErrUpstream) {
			h.log.Warn("list fetch failed", "view", view, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "platform unavailable, try again"})
			return
		}
		h.log.Error("load rows", "view", view, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type toggleSortRequest struct {
	Key string `json:"key"`
}

// POST /api/v1/workbench/views/{view}/sort
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req toggleSortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, `{"error":"key is required"}`, http.StatusBadRequest)
		return
	}
	view := ParseView(r.PathValue("view"))
	criteria := sess.ToggleSort(view, req.Key)
	writeJSON(w, http.StatusOK, map[string]any{"view": view, "criteria": criteria})
}

// PATCH /api/v1/workbench/tasks/{id}/draft
func (h *Handler) PatchDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	taskID := r.PathValue("id")
	task, found := sess.FindTask(taskID)
	if !found {
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validator.ValidatePatch(r.Context(), string(task.Kind), body); err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"invalid patch"}`, http.StatusBadRequest)
		return
	}
	var patch recon.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	draft, err := h.svc.PatchDraft(sess, taskID, patch)
	if err != nil {
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// POST /api/v1/workbench/tasks/{id}/stage
func (h *Handler) Stage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	id, summary, err := h.svc.Stage(r.Context(), sess, r.PathValue("id"), req)
	if err != nil {
		h.writeStageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"confirmation_id": id, "summary": summary})
}

func (h *Handler) writeStageError(w http.ResponseWriter, err error) {
	var vErr *recon.ValidationError
	switch {
	case errors.As(err, &vErr):
		// Inline field error; blocks only this task's save.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"field": vErr.Field, "code": vErr.Code})
	case errors.Is(err, recon.ErrResolved):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "task already resolved"})
	case errors.Is(err, ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
	case errors.Is(err, gate.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "another confirmation is pending"})
	case errors.Is(err, ErrUnknownAction):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.log.Error("stage failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// GET /api/v1/workbench/confirmation
func (h *Handler) PendingConfirmation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, summary, inFlight, pending := sess.Gate().Pending()
	if !pending {
		writeJSON(w, http.StatusOK, map[string]any{"pending": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":         true,
		"confirmation_id": id,
		"summary":         summary,
		"in_flight":       inFlight,
	})
}

// POST /api/v1/workbench/confirmations/{id}
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid confirmation id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.Confirm(r.Context(), sess, id); err != nil {
		switch {
		case errors.Is(err, gate.ErrNoMatch):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching pending confirmation"})
		case errors.Is(err, gate.ErrInFlight):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "commit already in flight"})
		case errors.Is(err, platform.ErrUpstream):
			// Transport failure: the draft is preserved exactly as edited.
			h.log.Warn("commit failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "commit failed, draft preserved, try again"})
		default:
			h.log.Error("confirm failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "committed"})
}

// DELETE /api/v1/workbench/confirmations/{id}
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid confirmation id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.Cancel(sess, id); err != nil {
		switch {
		case errors.Is(err, gate.ErrInFlight):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "commit already in flight"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching pending confirmation"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// GET /api/v1/workbench/audit
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(r); !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	entries, err := h.svc.RecentAudit(r.Context(), 100)
	if err != nil {
		h.log.Error("list audit", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

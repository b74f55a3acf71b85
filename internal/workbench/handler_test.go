package workbench

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/centrumkenaz/backend/internal/middleware"
	"github.com/centrumkenaz/backend/internal/platform"
	"github.com/centrumkenaz/backend/internal/recon"
	"github.com/centrumkenaz/backend/internal/services"
)

func newTestHandler(t *testing.T, env *testEnv) *Handler {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	validator, err := services.NewDecisionValidator(context.Background(), filepath.Join(filepath.Dir(file), "..", "..", "schemas"))
	if err != nil {
		t.Fatalf("NewDecisionValidator: %v", err)
	}
	sessions := NewSessionStore()
	sessions.sessions[env.sess.OperatorID] = env.sess
	return NewHandler(env.svc, sessions, validator, slog.New(slog.DiscardHandler))
}

func authedRequest(sess *Session, method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	op := &middleware.OperatorIdentity{ID: sess.OperatorID, Role: "admin"}
	return req.WithContext(middleware.WithOperator(req.Context(), op))
}

func TestHandler_ListViews(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	h := newTestHandler(t, env)

	rec := httptest.NewRecorder()
	h.ListViews(rec, authedRequest(env.sess, http.MethodGet, "/api/v1/workbench/views", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp viewsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Views) != 5 || resp.Active != ViewPendingPayments {
		t.Errorf("response: %+v", resp)
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	h := newTestHandler(t, env)

	rec := httptest.NewRecorder()
	h.ListViews(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workbench/views", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_RowsUpstreamDown(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	env.client.listTasks = func(ctx context.Context, kind recon.Kind) ([]*recon.Task, error) {
		return nil, fmt.Errorf("%w: status 502", platform.ErrUpstream)
	}
	h := newTestHandler(t, env)

	req := authedRequest(env.sess, http.MethodGet, "/api/v1/workbench/views/refunds/rows", "")
	req.SetPathValue("view", "refunds")
	rec := httptest.NewRecorder()
	h.Rows(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestHandler_PatchDraft(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	loadRefunds(t, env, []*recon.Task{refundTask("t1", true)})
	h := newTestHandler(t, env)

	cases := []struct {
		name       string
		taskID     string
		body       string
		wantStatus int
	}{
		{
			name:       "valid patch",
			taskID:     "t1",
			body:       `{"decision": false, "override_reason": "already paid"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown field",
			taskID:     "t1",
			body:       `{"resolve_now": true}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown task",
			taskID:     "ghost",
			body:       `{"decision": true}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(env.sess, http.MethodPatch, "/api/v1/workbench/tasks/"+tc.taskID+"/draft", tc.body)
			req.SetPathValue("id", tc.taskID)
			rec := httptest.NewRecorder()
			h.PatchDraft(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.wantStatus, rec.Body)
			}
			if tc.wantStatus == http.StatusOK {
				var d recon.Draft
				if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if d.Decision || d.OverrideReason != "already paid" {
					t.Errorf("draft: %+v", d)
				}
			}
		})
	}
}

func TestHandler_StageValidationError(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	loadRefunds(t, env, []*recon.Task{refundTask("t1", true)})
	h := newTestHandler(t, env)

	no := false
	short := "x"
	if _, err := env.svc.PatchDraft(env.sess, "t1", recon.Patch{Decision: &no, OverrideReason: &short}); err != nil {
		t.Fatalf("PatchDraft: %v", err)
	}

	req := authedRequest(env.sess, http.MethodPost, "/api/v1/workbench/tasks/t1/stage", `{"action": "save_decision"}`)
	req.SetPathValue("id", "t1")
	rec := httptest.NewRecorder()
	h.Stage(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Field != "override_reason" || resp.Code != "too_short" {
		t.Errorf("response: %+v", resp)
	}
}

func TestHandler_StageConfirmCancelRoundTrip(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	loadRefunds(t, env, []*recon.Task{refundTask("t1", true)})
	h := newTestHandler(t, env)

	req := authedRequest(env.sess, http.MethodPost, "/api/v1/workbench/tasks/t1/stage", `{"action": "approve"}`)
	req.SetPathValue("id", "t1")
	rec := httptest.NewRecorder()
	h.Stage(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stage status = %d, body %s", rec.Code, rec.Body)
	}
	var staged struct {
		ConfirmationID uuid.UUID `json:"confirmation_id"`
		Summary        string    `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &staged); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(staged.Summary, "approve payment of 120.00 PLN") {
		t.Errorf("summary = %q", staged.Summary)
	}

	rec = httptest.NewRecorder()
	h.PendingConfirmation(rec, authedRequest(env.sess, http.MethodGet, "/api/v1/workbench/confirmation", ""))
	if !strings.Contains(rec.Body.String(), `"pending":true`) {
		t.Errorf("pending body = %s", rec.Body)
	}

	req = authedRequest(env.sess, http.MethodDelete, "/api/v1/workbench/confirmations/"+staged.ConfirmationID.String(), "")
	req.SetPathValue("id", staged.ConfirmationID.String())
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body)
	}

	// Confirming the cancelled ID is stale.
	req = authedRequest(env.sess, http.MethodPost, "/api/v1/workbench/confirmations/"+staged.ConfirmationID.String(), "")
	req.SetPathValue("id", staged.ConfirmationID.String())
	rec = httptest.NewRecorder()
	h.Confirm(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("confirm after cancel status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestHandler_ConfirmUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &fakePlatform{})
	loadRefunds(t, env, []*recon.Task{refundTask("t1", true)})
	env.client.commitAppr = func(ctx context.Context, kind recon.Kind, taskID string) (*platform.ServerResult, error) {
		return nil, fmt.Errorf("%w: status 503", platform.ErrUpstream)
	}
	h := newTestHandler(t, env)

	id, _, err := env.svc.Stage(context.Background(), env.sess, "t1", StageRequest{Action: ActionApprove})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	req := authedRequest(env.sess, http.MethodPost, "/api/v1/workbench/confirmations/"+id.String(), "")
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Confirm(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "draft preserved") {
		t.Errorf("body = %s", rec.Body)
	}
}

package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/centrumkenaz/backend/internal/audit"
	"github.com/centrumkenaz/backend/internal/gate"
	"github.com/centrumkenaz/backend/internal/grid"
	"github.com/centrumkenaz/backend/internal/notify"
	"github.com/centrumkenaz/backend/internal/platform"
	"github.com/centrumkenaz/backend/internal/recon"
)

// ErrTaskNotFound is returned when a task ID is not present in any cached list.
var ErrTaskNotFound = errors.New("task not found")

// ErrUnknownAction is returned for an unrecognized stage action.
var ErrUnknownAction = errors.New("unknown action")

// Stage actions.
const (
	ActionApprove          = "approve"
	ActionSaveDecision     = "save_decision"
	ActionNotificationFlag = "notification_flag"
)

// AuditRecorder is the subset of the audit repository the service needs.
type AuditRecorder interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *audit.Entry) error
	ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InsertDecisionNoticeTxFunc enqueues a decision notice within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertDecisionNoticeTxFunc func(ctx context.Context, tx pgx.Tx, args notify.DecisionNoticeArgs) error

// Service is the workbench shell: it fetches task lists from the platform,
// feeds them through the grid, orchestrates draft edits and gated commits, and
// records every committed decision.
type Service struct {
	client       platform.Client
	pool         TxBeginner
	audit        AuditRecorder
	insertNotice InsertDecisionNoticeTxFunc
	cmp          *grid.Comparer
	log          *slog.Logger
}

func NewService(client platform.Client, pool TxBeginner, auditRepo AuditRecorder, insertNotice InsertDecisionNoticeTxFunc, cmp *grid.Comparer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cmp == nil {
		cmp = grid.DefaultComparer()
	}
	return &Service{
		client:       client,
		pool:         pool,
		audit:        auditRepo,
		insertNotice: insertNotice,
		cmp:          cmp,
		log:          log,
	}
}

// Cell is one rendered grid cell.
type Cell struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RowPayload is one rendered grid row. Resolved rows are read-only in the
// console; Draft is nil for rows that carry no draft (balances).
type RowPayload struct {
	ID       string       `json:"id,omitempty"`
	Cells    []Cell       `json:"cells"`
	Draft    *recon.Draft `json:"draft,omitempty"`
	Resolved bool         `json:"resolved,omitempty"`
}

// ColumnInfo describes a column to the console, including its sort indicator.
type ColumnInfo struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Align     grid.Align `json:"align,omitempty"`
	Sortable  bool       `json:"sortable"`
	Indicator string     `json:"indicator,omitempty"`
}

// GridPayload is a fully ordered view ready for rendering.
type GridPayload struct {
	View     ViewID           `json:"view"`
	Label    string           `json:"label"`
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []RowPayload     `json:"rows"`
	Criteria []grid.Criterion `json:"criteria"`
}

// LoadRows fetches the view's data from the platform, reseeds drafts, and
// returns the rows ordered by the session's sort state.
func (s *Service) LoadRows(ctx context.Context, sess *Session, view ViewID) (*GridPayload, error) {
	if view == ViewBalances {
		return s.loadBalances(ctx, sess)
	}
	kind, ok := KindForView(view)
	if !ok {
		return nil, fmt.Errorf("view %q has no task kind", view)
	}
	tasks, err := s.client.ListTasks(ctx, kind)
	if err != nil {
		return nil, err
	}
	sess.SetTasks(kind, tasks, "")
	return s.taskGrid(sess, view, kind), nil
}

func (s *Service) taskGrid(sess *Session, view ViewID, kind recon.Kind) *GridPayload {
	cols := taskColumns(kind)
	criteria := sess.Criteria(view)

	rows := make([]TaskRow, 0, len(sess.TasksFor(kind)))
	for _, t := range sess.TasksFor(kind) {
		rows = append(rows, TaskRow{Task: t, Draft: sess.DraftFor(t)})
	}
	ordered := grid.Order(s.cmp, cols, rows, criteria)

	payload := &GridPayload{View: view, Label: Label(view), Criteria: criteria}
	for _, c := range cols {
		payload.Columns = append(payload.Columns, ColumnInfo{
			Key:       c.Key,
			Label:     c.Label,
			Align:     c.Align,
			Sortable:  !c.Unsortable,
			Indicator: grid.Indicator(criteria, c.Key),
		})
	}
	for _, r := range ordered {
		row := RowPayload{ID: r.Task.TaskID, Resolved: r.Task.IsResolved}
		if !r.Task.IsResolved {
			d := r.Draft
			row.Draft = &d
		}
		for _, c := range cols {
			row.Cells = append(row.Cells, Cell{Key: c.Key, Value: c.Render(r)})
		}
		payload.Rows = append(payload.Rows, row)
	}
	return payload
}

func (s *Service) loadBalances(ctx context.Context, sess *Session) (*GridPayload, error) {
	entries, err := s.client.ListBalances(ctx)
	if err != nil {
		return nil, err
	}
	sess.SetBalances(entries)

	cols := balanceColumns()
	criteria := sess.Criteria(ViewBalances)
	ordered := grid.Order(s.cmp, cols, entries, criteria)

	payload := &GridPayload{View: ViewBalances, Label: Label(ViewBalances), Criteria: criteria}
	for _, c := range cols {
		payload.Columns = append(payload.Columns, ColumnInfo{
			Key:       c.Key,
			Label:     c.Label,
			Align:     c.Align,
			Sortable:  !c.Unsortable,
			Indicator: grid.Indicator(criteria, c.Key),
		})
	}
	for _, e := range ordered {
		row := RowPayload{}
		for _, c := range cols {
			row.Cells = append(row.Cells, Cell{Key: c.Key, Value: c.Render(e)})
		}
		payload.Rows = append(payload.Rows, row)
	}
	return payload, nil
}

// PatchDraft applies a patch to a task's draft.
func (s *Service) PatchDraft(sess *Session, taskID string, p recon.Patch) (recon.Draft, error) {
	task, ok := sess.FindTask(taskID)
	if !ok {
		return recon.Draft{}, ErrTaskNotFound
	}
	return sess.PatchDraft(task, p), nil
}

// StageRequest names the committing action to stage. Value is only read for
// the notification flag toggle.
type StageRequest struct {
	Action string `json:"action"`
	Value  *bool  `json:"value,omitempty"`
}

// Stage validates the requested action and opens the session's confirmation
// gate with a human-readable summary. Nothing is sent upstream until the
// operator confirms.
func (s *Service) Stage(ctx context.Context, sess *Session, taskID string, req StageRequest) (uuid.UUID, string, error) {
	task, ok := sess.FindTask(taskID)
	if !ok {
		return uuid.Nil, "", ErrTaskNotFound
	}

	var summary string
	var action gate.Action
	switch req.Action {
	case ActionSaveDecision:
		draft := sess.DraftFor(task)
		if err := recon.ValidateForSave(task, draft); err != nil {
			return uuid.Nil, "", err
		}
		summary = recon.Summary(task, draft)
		action = s.commitDecision(sess, task, draft, summary)

	case ActionApprove:
		if task.IsResolved {
			return uuid.Nil, "", recon.ErrResolved
		}
		summary = fmt.Sprintf("approve payment of %s from %s", task.Subject.Amount(), task.Subject.MemberName)
		if task.Subject.EventTitle != "" {
			summary += fmt.Sprintf(" (%s)", task.Subject.EventTitle)
		}
		action = s.commitApproval(sess, task, summary)

	case ActionNotificationFlag:
		value := req.Value != nil && *req.Value
		state := "off"
		if value {
			state = "on"
		}
		summary = fmt.Sprintf("turn member notifications %s for %s", state, task.Subject.MemberName)
		action = s.commitNotificationFlag(sess, task, value, summary)

	default:
		return uuid.Nil, "", fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	id, err := sess.Gate().Stage(summary, action)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, summary, nil
}

// Confirm executes the staged commit for the session.
func (s *Service) Confirm(ctx context.Context, sess *Session, id uuid.UUID) error {
	return sess.Gate().Confirm(ctx, id)
}

// Cancel discards the staged commit.
func (s *Service) Cancel(sess *Session, id uuid.UUID) error {
	return sess.Gate().Cancel(id)
}

// RecentAudit returns the most recent committed decisions.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]*audit.Entry, error) {
	return s.audit.ListRecent(ctx, limit)
}

func (s *Service) commitDecision(sess *Session, task *recon.Task, draft recon.Draft, summary string) gate.Action {
	return func(ctx context.Context) error {
		if _, err := s.client.CommitRefundDecision(ctx, task.TaskID, draft); err != nil {
			// The draft is left exactly as the operator edited it; a retry
			// needs no re-entry.
			return err
		}
		s.record(ctx, sess.OperatorID, task, audit.ActionRefundDecision, &draft, summary, true)
		return s.refreshAfterCommit(ctx, sess, task.Kind, task.TaskID)
	}
}

func (s *Service) commitApproval(sess *Session, task *recon.Task, summary string) gate.Action {
	return func(ctx context.Context) error {
		if _, err := s.client.CommitApproval(ctx, task.Kind, task.TaskID); err != nil {
			return err
		}
		s.record(ctx, sess.OperatorID, task, audit.ActionApprove, nil, summary, true)
		return s.refreshAfterCommit(ctx, sess, task.Kind, task.TaskID)
	}
}

func (s *Service) commitNotificationFlag(sess *Session, task *recon.Task, value bool, summary string) gate.Action {
	return func(ctx context.Context) error {
		if _, err := s.client.CommitNotificationFlag(ctx, task.TaskID, value); err != nil {
			return err
		}
		s.record(ctx, sess.OperatorID, task, audit.ActionNotificationFlag, nil, summary, false)
		return s.refreshAfterCommit(ctx, sess, task.Kind, task.TaskID)
	}
}

// record writes the audit entry and, when the commit warrants one, enqueues
// the member notice in the same transaction. The upstream commit is already
// durable at this point, so failures here are logged, not propagated.
func (s *Service) record(ctx context.Context, operatorID uuid.UUID, task *recon.Task, action string, draft *recon.Draft, summary string, notice bool) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Error("begin audit tx", "task_id", task.TaskID, "error", err)
		return
	}
	defer tx.Rollback(ctx)

	entry := &audit.Entry{
		ID:         uuid.New(),
		OperatorID: operatorID,
		TaskID:     task.TaskID,
		TaskKind:   string(task.Kind),
		Action:     action,
		Summary:    summary,
	}
	if draft != nil {
		entry.Decision = &draft.Decision
		entry.MarkedSettled = &draft.MarkedSettled
		entry.OverrideReason = draft.OverrideReason
	}
	if err := s.audit.CreateTx(ctx, tx, entry); err != nil {
		s.log.Error("write audit entry", "task_id", task.TaskID, "error", err)
		return
	}

	if notice && task.Subject.MemberEmail != "" {
		args := notify.DecisionNoticeArgs{
			TaskID:      task.TaskID,
			TaskKind:    string(task.Kind),
			MemberEmail: task.Subject.MemberEmail,
			Subject:     "Centrum Kenaz: decision on your " + string(task.Kind),
			Body:        summary,
		}
		if err := s.insertNotice(ctx, tx, args); err != nil {
			s.log.Error("enqueue decision notice", "task_id", task.TaskID, "error", err)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.log.Error("commit audit tx", "task_id", task.TaskID, "error", err)
	}
}

// refreshAfterCommit refetches the committed task's list so the refreshed base
// overwrites the stale draft before the view is considered consistent again.
func (s *Service) refreshAfterCommit(ctx context.Context, sess *Session, kind recon.Kind, committedID string) error {
	tasks, err := s.client.ListTasks(ctx, kind)
	if err != nil {
		// The commit itself is durable upstream; surface the refresh failure
		// so the operator reloads the view.
		return fmt.Errorf("decision committed, list refresh failed: %w", err)
	}
	sess.SetTasks(kind, tasks, committedID)
	return nil
}

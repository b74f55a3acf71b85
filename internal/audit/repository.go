// Package audit persists the trail of operator decisions committed through
// the workbench. The platform remains the source of truth for the decisions
// themselves; this trail answers "who confirmed what, when, and why".
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded in the trail.
const (
	ActionApprove          = "approve"
	ActionRefundDecision   = "refund_decision"
	ActionNotificationFlag = "notification_flag"
)

type Entry struct {
	ID             uuid.UUID `json:"id"`
	OperatorID     uuid.UUID `json:"operator_id"`
	TaskID         string    `json:"task_id"`
	TaskKind       string    `json:"task_kind"`
	Action         string    `json:"action"`
	Decision       *bool     `json:"decision,omitempty"`
	MarkedSettled  *bool     `json:"marked_settled,omitempty"`
	OverrideReason string    `json:"override_reason,omitempty"`
	Summary        string    `json:"summary"`
	CreatedAt      time.Time `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTx inserts an audit entry inside the given transaction, so the entry
// and any notification job enqueued for the same commit land atomically.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, e *Entry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO decision_audit (id, operator_id, task_id, task_kind, action, decision, marked_settled, override_reason, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, e.ID, e.OperatorID, e.TaskID, e.TaskKind, e.Action, e.Decision, e.MarkedSettled, e.OverrideReason, e.Summary).Scan(&e.CreatedAt)
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, operator_id, task_id, task_kind, action, decision, marked_settled, override_reason, summary, created_at
		FROM decision_audit ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.TaskID, &e.TaskKind, &e.Action, &e.Decision, &e.MarkedSettled, &e.OverrideReason, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (r *Repository) ListByTaskID(ctx context.Context, taskID string) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, operator_id, task_id, task_kind, action, decision, marked_settled, override_reason, summary, created_at
		FROM decision_audit WHERE task_id = $1 ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.TaskID, &e.TaskKind, &e.Action, &e.Decision, &e.MarkedSettled, &e.OverrideReason, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

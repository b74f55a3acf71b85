// Package platform is the workbench's view of the upstream platform API. The
// console never mutates financial state itself; every task list and every
// commit goes through this capability interface.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/centrumkenaz/backend/internal/recon"
)

// ErrUpstream wraps any non-success response from the platform API so handlers
// can map it to a transport-level error. The failed call never partially
// mutates local state; the operator's draft survives for retry.
var ErrUpstream = errors.New("platform API error")

// ServerResult is the platform's acknowledgement of an approval action.
type ServerResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BalanceEntry is one row of the member balance breakdown view. Monetary
// fields are cents; LastPaymentAt is nil for members who never paid.
type BalanceEntry struct {
	MemberName    string     `json:"member_name"`
	MemberEmail   string     `json:"member_email"`
	PaidCents     int64      `json:"paid_cents"`
	DueCents      int64      `json:"due_cents"`
	DonatedCents  int64      `json:"donated_cents"`
	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
}

// Notice is a member-facing notification about a committed decision,
// delivered asynchronously by the notify worker.
type Notice struct {
	TaskID      string `json:"task_id"`
	MemberEmail string `json:"member_email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Client is the set of upstream operations the workbench needs. Implementations
// must not apply any optimistic local state; the caller relies on the returned
// authoritative task (or an error) exclusively.
type Client interface {
	// ListTasks fetches the current task list for one workbench kind.
	ListTasks(ctx context.Context, kind recon.Kind) ([]*recon.Task, error)

	// ListBalances fetches the member balance breakdown.
	ListBalances(ctx context.Context) ([]*BalanceEntry, error)

	// CommitApproval commits an idempotent-intent approval for the task.
	CommitApproval(ctx context.Context, kind recon.Kind, taskID string) (*ServerResult, error)

	// CommitRefundDecision commits a refund decision and returns the
	// authoritative post-commit task.
	CommitRefundDecision(ctx context.Context, taskID string, d recon.Draft) (*recon.Task, error)

	// CommitNotificationFlag toggles the member-notification flag on a task.
	CommitNotificationFlag(ctx context.Context, taskID string, value bool) (*recon.Task, error)

	// SendDecisionNotice delivers a member notice for a committed decision.
	SendDecisionNotice(ctx context.Context, n Notice) error
}

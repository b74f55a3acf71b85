// Package notify delivers member-facing decision notices asynchronously. The
// job is enqueued in the same transaction as the audit entry for a commit, so
// a notice can never exist for a decision that was not recorded.
package notify

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/centrumkenaz/backend/internal/platform"
)

type DecisionNoticeArgs struct {
	TaskID      string `json:"task_id"`
	TaskKind    string `json:"task_kind"`
	MemberEmail string `json:"member_email"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

func (DecisionNoticeArgs) Kind() string { return "decision_notice" }

// NoticeSender is the single platform capability the worker needs.
type NoticeSender interface {
	SendDecisionNotice(ctx context.Context, n platform.Notice) error
}

type DecisionNoticeWorker struct {
	river.WorkerDefaults[DecisionNoticeArgs]
	sender NoticeSender
}

func NewDecisionNoticeWorker(sender NoticeSender) *DecisionNoticeWorker {
	return &DecisionNoticeWorker{sender: sender}
}

func (w *DecisionNoticeWorker) Work(ctx context.Context, job *river.Job[DecisionNoticeArgs]) error {
	args := job.Args
	err := w.sender.SendDecisionNotice(ctx, platform.Notice{
		TaskID:      args.TaskID,
		MemberEmail: args.MemberEmail,
		Subject:     args.Subject,
		Body:        args.Body,
	})
	if err != nil {
		// Returning the error lets River retry with backoff.
		return fmt.Errorf("send decision notice for task %s: %w", args.TaskID, err)
	}
	return nil
}

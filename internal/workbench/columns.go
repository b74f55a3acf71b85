package workbench

import (
	"time"

	"github.com/centrumkenaz/backend/internal/grid"
	"github.com/centrumkenaz/backend/internal/platform"
	"github.com/centrumkenaz/backend/internal/recon"
)

// TaskRow is what the task views feed into the grid: the immutable base plus
// the operator's current draft over it.
type TaskRow struct {
	Task  *recon.Task
	Draft recon.Draft
}

const dateLayout = "2006-01-02 15:04"

func renderDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func renderBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// taskColumns builds the column set for a task view. Sorting projections are
// raw values (cents, times, bools); rendering is formatted separately so a
// column can show "120.00 PLN" while ordering on the amount.
func taskColumns(kind recon.Kind) []grid.Column[TaskRow] {
	cols := []grid.Column[TaskRow]{
		{
			Key:       "member",
			Label:     "Member",
			SortValue: func(r TaskRow) any { return r.Task.Subject.MemberName },
			Render:    func(r TaskRow) string { return r.Task.Subject.MemberName },
		},
		{
			Key:       "event",
			Label:     "Event",
			SortValue: func(r TaskRow) any { return r.Task.Subject.EventTitle },
			Render:    func(r TaskRow) string { return r.Task.Subject.EventTitle },
		},
		{
			Key:       "amount",
			Label:     "Amount",
			Align:     grid.AlignEnd,
			SortValue: func(r TaskRow) any { return r.Task.Subject.AmountCents },
			Render:    func(r TaskRow) string { return r.Task.Subject.Amount() },
		},
		{
			Key:        "recommendation",
			Label:      "Recommendation",
			Unsortable: true,
			SortValue:  func(r TaskRow) any { return r.Task.RecommendationCode },
			Render:     func(r TaskRow) string { return r.Task.RecommendationCode },
		},
		{
			Key:       "decision",
			Label:     "Decision",
			SortValue: func(r TaskRow) any { return r.Draft.Decision },
			Render: func(r TaskRow) string {
				if r.Draft.Decision {
					return "approve"
				}
				return "refuse"
			},
		},
	}
	if kind == recon.KindRefund || kind == recon.KindPendingPayment {
		cols = append(cols, grid.Column[TaskRow]{
			Key:       "settled",
			Label:     "Settled",
			SortValue: func(r TaskRow) any { return r.Draft.MarkedSettled },
			Render:    func(r TaskRow) string { return renderBool(r.Draft.MarkedSettled) },
		})
	}
	cols = append(cols,
		grid.Column[TaskRow]{
			Key:        "reason",
			Label:      "Override reason",
			Unsortable: true,
			Render:     func(r TaskRow) string { return r.Draft.OverrideReason },
		},
		grid.Column[TaskRow]{
			Key:       "reviewed_at",
			Label:     "Reviewed",
			SortValue: func(r TaskRow) any { return r.Task.ReviewedAt },
			Render:    func(r TaskRow) string { return renderDate(r.Task.ReviewedAt) },
		},
		grid.Column[TaskRow]{
			Key:       "created_at",
			Label:     "Created",
			SortValue: func(r TaskRow) any { return r.Task.CreatedAt },
			Render:    func(r TaskRow) string { return r.Task.CreatedAt.Format(dateLayout) },
		},
	)
	return cols
}

func balanceColumns() []grid.Column[*platform.BalanceEntry] {
	amount := func(cents int64) string {
		return recon.SubjectRef{AmountCents: cents, Currency: "PLN"}.Amount()
	}
	return []grid.Column[*platform.BalanceEntry]{
		{
			Key:       "member",
			Label:     "Member",
			SortValue: func(e *platform.BalanceEntry) any { return e.MemberName },
			Render:    func(e *platform.BalanceEntry) string { return e.MemberName },
		},
		{
			Key:       "email",
			Label:     "Email",
			SortValue: func(e *platform.BalanceEntry) any { return e.MemberEmail },
			Render:    func(e *platform.BalanceEntry) string { return e.MemberEmail },
		},
		{
			Key:       "paid",
			Label:     "Paid",
			Align:     grid.AlignEnd,
			SortValue: func(e *platform.BalanceEntry) any { return e.PaidCents },
			Render:    func(e *platform.BalanceEntry) string { return amount(e.PaidCents) },
		},
		{
			Key:       "due",
			Label:     "Due",
			Align:     grid.AlignEnd,
			SortValue: func(e *platform.BalanceEntry) any { return e.DueCents },
			Render:    func(e *platform.BalanceEntry) string { return amount(e.DueCents) },
		},
		{
			Key:       "donated",
			Label:     "Donated",
			Align:     grid.AlignEnd,
			SortValue: func(e *platform.BalanceEntry) any { return e.DonatedCents },
			Render:    func(e *platform.BalanceEntry) string { return amount(e.DonatedCents) },
		},
		{
			Key:       "last_payment",
			Label:     "Last payment",
			SortValue: func(e *platform.BalanceEntry) any { return e.LastPaymentAt },
			Render:    func(e *platform.BalanceEntry) string { return renderDate(e.LastPaymentAt) },
		},
	}
}

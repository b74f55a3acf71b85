// Package recon holds the reconciliation task model: the immutable task base
// fetched from the platform API, the operator's local draft over it, and the
// invariants every commit attempt must satisfy.
package recon

import (
	"fmt"
	"time"
)

// Task kinds served by the workbench. The platform owns the values; the
// workbench only routes on them.
type Kind string

const (
	KindPendingPayment Kind = "pending_payment"
	KindRefund         Kind = "refund"
	KindPromotion      Kind = "waitlist_promotion"
	KindSubscription   Kind = "subscription_purchase"
)

// SubjectRef identifies who and what a task is about. Display-only; the
// workbench never routes on these fields.
type SubjectRef struct {
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
	EventTitle  string `json:"event_title,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Task is the immutable base of a reconciliation task as the platform last
// reported it. TaskID is an opaque platform identifier, stable across reloads.
// RecommendationCode is an opaque signal from the recommendation engine,
// compared for equality and displayed, never interpreted.
type Task struct {
	TaskID              string     `json:"task_id"`
	Kind                Kind       `json:"kind"`
	Subject             SubjectRef `json:"subject"`
	RecommendationCode  string     `json:"recommendation_code"`
	RecommendedDecision bool       `json:"recommended_decision"`
	IsResolved          bool       `json:"is_resolved"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Amount renders the subject amount for human consumption, e.g. "120.00 PLN".
func (s SubjectRef) Amount() string {
	cur := s.Currency
	if cur == "" {
		cur = "PLN"
	}
	cents := s.AmountCents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, cur)
}

// Summary builds the plain-language text the confirmation gate shows before a
// decision is committed: subject, amount and decision, plus the override
// reason when the operator disagrees with the recommendation. Raw IDs never
// appear here.
func Summary(t *Task, d Draft) string {
	verb := "refuse"
	if d.Decision {
		verb = "approve"
	}
	s := fmt.Sprintf("%s %s for %s", verb, t.Subject.Amount(), t.Subject.MemberName)
	if t.Subject.EventTitle != "" {
		s += fmt.Sprintf(" (%s)", t.Subject.EventTitle)
	}
	if d.MarkedSettled {
		s += ", marked as settled"
	}
	if d.Decision != t.RecommendedDecision {
		s += fmt.Sprintf(" — overriding recommendation: %s", d.OverrideReason)
	}
	return s
}

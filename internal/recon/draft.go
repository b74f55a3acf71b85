package recon

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinOverrideReasonLen is the minimum trimmed length (in runes) of the
// override reason when the operator's decision disagrees with the
// recommendation.
const MinOverrideReasonLen = 8

// ErrResolved is returned when a commit is attempted for a task whose decision
// is already durably committed upstream.
var ErrResolved = errors.New("task already resolved")

// Draft holds the operator's local, uncommitted edits to a task's decision
// fields. MarkedSettled is only meaningful while Decision is true.
type Draft struct {
	TaskID         string `json:"task_id"`
	Decision       bool   `json:"decision"`
	MarkedSettled  bool   `json:"marked_settled"`
	OverrideReason string `json:"override_reason"`
}

// Patch is a partial draft update; nil fields are left untouched.
type Patch struct {
	Decision       *bool   `json:"decision,omitempty"`
	MarkedSettled  *bool   `json:"marked_settled,omitempty"`
	OverrideReason *string `json:"override_reason,omitempty"`
}

// SeedDraft initializes a draft from the task base: decision follows the
// recommendation, settlement unset, no override reason. Used on every fresh
// fetch.
func SeedDraft(t *Task) Draft {
	return Draft{TaskID: t.TaskID, Decision: t.RecommendedDecision}
}

// ApplyPatch merges p into d and re-applies the settlement dependency:
// flipping the decision to false forces MarkedSettled off, and requesting
// MarkedSettled while the decision is false is ignored. Drafts of resolved
// tasks are returned unchanged.
func ApplyPatch(t *Task, d Draft, p Patch) Draft {
	if t.IsResolved {
		return d
	}
	if p.Decision != nil {
		d.Decision = *p.Decision
		if !d.Decision {
			d.MarkedSettled = false
		}
	}
	if p.MarkedSettled != nil {
		if !*p.MarkedSettled {
			d.MarkedSettled = false
		} else if d.Decision {
			d.MarkedSettled = true
		}
	}
	if p.OverrideReason != nil {
		d.OverrideReason = *p.OverrideReason
	}
	return d
}

// ValidationError reports a draft field that blocks saving. It is local and
// non-fatal: handlers surface it inline next to the field, never as a global
// notification.
type ValidationError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft field %s invalid: %s", e.Field, e.Code)
}

// ValidateForSave checks the draft against the task base before any network
// call. A decision that disagrees with the recommendation requires an override
// reason of at least MinOverrideReasonLen trimmed runes; an agreeing decision
// needs none.
func ValidateForSave(t *Task, d Draft) error {
	if t.IsResolved {
		return ErrResolved
	}
	if d.Decision != t.RecommendedDecision {
		reason := strings.TrimSpace(d.OverrideReason)
		if utf8.RuneCountInString(reason) < MinOverrideReasonLen {
			return &ValidationError{Field: "override_reason", Code: "too_short"}
		}
	}
	return nil
}

// Drafts keys drafts by task ID so concurrent edits of different tasks never
// interfere. Values are copied on write; the maps themselves are treated as
// immutable once handed out.
type Drafts map[string]Draft

// With returns a copy of ds with d stored under its task ID.
func (ds Drafts) With(d Draft) Drafts {
	out := make(Drafts, len(ds)+1)
	for id, v := range ds {
		out[id] = v
	}
	out[d.TaskID] = d
	return out
}

// Without returns a copy of ds with the given task's draft removed.
func (ds Drafts) Without(taskID string) Drafts {
	out := make(Drafts, len(ds))
	for id, v := range ds {
		if id != taskID {
			out[id] = v
		}
	}
	return out
}

// Reseed rebuilds the draft set after a list refresh. Unsaved edits to tasks
// still pending survive; resolved or newly appeared tasks get a fresh seed,
// and drafts of tasks that disappeared are dropped. Callers that just
// committed a task should Without it first so the authoritative base reseeds
// its draft.
func Reseed(old Drafts, tasks []*Task) Drafts {
	next := make(Drafts, len(tasks))
	for _, t := range tasks {
		if !t.IsResolved {
			if d, ok := old[t.TaskID]; ok {
				next[t.TaskID] = d
				continue
			}
		}
		next[t.TaskID] = SeedDraft(t)
	}
	return next
}

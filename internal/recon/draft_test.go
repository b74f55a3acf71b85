package recon

import (
	"errors"
	"testing"
	"time"
)

func boolP(b bool) *bool    { return &b }
func strP(s string) *string { return &s }

func pendingTask(id string, recommended bool) *Task {
	return &Task{
		TaskID:              id,
		Kind:                KindRefund,
		Subject:             SubjectRef{MemberName: "Anna Kowalska", EventTitle: "Obóz letni", AmountCents: 12000, Currency: "PLN"},
		RecommendationCode:  "AUTO_OK",
		RecommendedDecision: recommended,
		CreatedAt:           time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSeedDraft(t *testing.T) {
	task := pendingTask("t1", true)
	d := SeedDraft(task)

	if d.TaskID != "t1" {
		t.Errorf("TaskID = %q", d.TaskID)
	}
	if !d.Decision {
		t.Error("decision should follow recommendation")
	}
	if d.MarkedSettled || d.OverrideReason != "" {
		t.Errorf("unexpected seed values: %+v", d)
	}
}

func TestApplyPatch_DecisionFalseForcesSettledOff(t *testing.T) {
	task := pendingTask("t1", true)
	d := Draft{TaskID: "t1", Decision: true, MarkedSettled: true}

	got := ApplyPatch(task, d, Patch{Decision: boolP(false)})
	if got.Decision {
		t.Error("decision should be false")
	}
	if got.MarkedSettled {
		t.Error("flipping decision off must force settled off")
	}
}

func TestApplyPatch_SettledRejectedWhileRefusing(t *testing.T) {
	task := pendingTask("t1", true)
	d := Draft{TaskID: "t1", Decision: false}

	got := ApplyPatch(task, d, Patch{MarkedSettled: boolP(true)})
	if got.MarkedSettled {
		t.Error("settled must not be settable while decision is false")
	}
}

func TestApplyPatch_SettledAllowedWhileApproving(t *testing.T) {
	task := pendingTask("t1", true)
	d := SeedDraft(task)

	got := ApplyPatch(task, d, Patch{MarkedSettled: boolP(true)})
	if !got.MarkedSettled {
		t.Error("settled should stick when decision is true")
	}
}

func TestApplyPatch_ResolvedTaskIsNoOp(t *testing.T) {
	task := pendingTask("t1", true)
	task.IsResolved = true
	d := Draft{TaskID: "t1", Decision: true, OverrideReason: "original"}

	got := ApplyPatch(task, d, Patch{Decision: boolP(false), OverrideReason: strP("changed")})
	if got != d {
		t.Errorf("resolved task draft changed: %+v", got)
	}
}

func TestApplyPatch_PartialMerge(t *testing.T) {
	task := pendingTask("t1", true)
	d := Draft{TaskID: "t1", Decision: true, OverrideReason: "keep me"}

	got := ApplyPatch(task, d, Patch{MarkedSettled: boolP(true)})
	if got.OverrideReason != "keep me" {
		t.Error("nil patch fields must leave draft fields untouched")
	}
}

func TestValidateForSave(t *testing.T) {
	cases := []struct {
		name        string
		recommended bool
		draft       Draft
		wantInvalid bool
	}{
		{
			name:        "disagreement with empty reason",
			recommended: true,
			draft:       Draft{Decision: false, OverrideReason: ""},
			wantInvalid: true,
		},
		{
			name:        "disagreement with short reason",
			recommended: true,
			draft:       Draft{Decision: false, OverrideReason: "nope!"},
			wantInvalid: true,
		},
		{
			name:        "disagreement with whitespace-padded short reason",
			recommended: true,
			draft:       Draft{Decision: false, OverrideReason: "  short   "},
			wantInvalid: true,
		},
		{
			name:        "disagreement with sufficient reason",
			recommended: true,
			draft:       Draft{Decision: false, OverrideReason: "member paid by bank transfer"},
			wantInvalid: false,
		},
		{
			name:        "agreement needs no reason",
			recommended: true,
			draft:       Draft{Decision: true, OverrideReason: ""},
			wantInvalid: false,
		},
		{
			name:        "agreement with reason is fine too",
			recommended: false,
			draft:       Draft{Decision: false, OverrideReason: "x"},
			wantInvalid: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := pendingTask("t1", tc.recommended)
			err := ValidateForSave(task, tc.draft)
			if tc.wantInvalid {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if vErr.Field != "override_reason" {
					t.Errorf("field = %q", vErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateForSave_Resolved(t *testing.T) {
	task := pendingTask("t1", true)
	task.IsResolved = true

	if err := ValidateForSave(task, SeedDraft(task)); !errors.Is(err, ErrResolved) {
		t.Errorf("expected ErrResolved, got %v", err)
	}
}

func TestDrafts_CopyOnWrite(t *testing.T) {
	ds := Drafts{"t1": {TaskID: "t1", Decision: true}}

	next := ds.With(Draft{TaskID: "t2", Decision: false})
	if len(ds) != 1 {
		t.Error("With mutated the original map")
	}
	if len(next) != 2 {
		t.Errorf("next = %+v", next)
	}

	removed := next.Without("t1")
	if _, ok := next["t1"]; !ok {
		t.Error("Without mutated the original map")
	}
	if _, ok := removed["t1"]; ok {
		t.Error("t1 should be gone")
	}
}

func TestReseed(t *testing.T) {
	t1 := pendingTask("t1", true)
	t2 := pendingTask("t2", true)
	old := Drafts{
		"t1":   {TaskID: "t1", Decision: false, OverrideReason: "unsaved operator edit"},
		"gone": {TaskID: "gone", Decision: true},
	}

	got := Reseed(old, []*Task{t1, t2})
	if got["t1"].OverrideReason != "unsaved operator edit" {
		t.Error("unsaved edit to a still-pending task should survive refresh")
	}
	if got["t2"] != SeedDraft(t2) {
		t.Errorf("new task should get a fresh seed: %+v", got["t2"])
	}
	if _, ok := got["gone"]; ok {
		t.Error("draft for a vanished task should be dropped")
	}
}

func TestReseed_ResolvedTaskGetsFreshSeed(t *testing.T) {
	t1 := pendingTask("t1", true)
	t1.IsResolved = true
	old := Drafts{"t1": {TaskID: "t1", Decision: false, OverrideReason: "stale"}}

	got := Reseed(old, []*Task{t1})
	if got["t1"] != SeedDraft(t1) {
		t.Errorf("resolved base must overwrite the stale draft: %+v", got["t1"])
	}
}

func TestSummary(t *testing.T) {
	task := pendingTask("t1", true)

	agree := Summary(task, Draft{Decision: true, MarkedSettled: true})
	if want := "approve 120.00 PLN for Anna Kowalska (Obóz letni), marked as settled"; agree != want {
		t.Errorf("got %q, want %q", agree, want)
	}

	override := Summary(task, Draft{Decision: false, OverrideReason: "duplicate transfer received"})
	if want := "refuse 120.00 PLN for Anna Kowalska (Obóz letni) — overriding recommendation: duplicate transfer received"; override != want {
		t.Errorf("got %q, want %q", override, want)
	}
}

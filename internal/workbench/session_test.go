package workbench

import (
	"testing"

	"github.com/google/uuid"

	"github.com/centrumkenaz/backend/internal/grid"
	"github.com/centrumkenaz/backend/internal/recon"
)

func TestSession_ScrollSurvivesViewSwitch(t *testing.T) {
	s := newSession(uuid.New())

	if v, scroll := s.ViewState(); v != ViewPendingPayments || scroll != 0 {
		t.Fatalf("initial state: (%q, %d)", v, scroll)
	}

	s.SelectView(ViewRefunds, 42) // leaving pending payments at offset 42
	s.SelectView(ViewBalances, 7) // leaving refunds at offset 7
	s.SelectView(ViewPendingPayments, 0)

	if v, scroll := s.ViewState(); v != ViewPendingPayments || scroll != 42 {
		t.Errorf("pending payments: (%q, %d), want offset 42", v, scroll)
	}
	s.SelectView(ViewRefunds, 0)
	if _, scroll := s.ViewState(); scroll != 7 {
		t.Errorf("refunds offset = %d, want 7", scroll)
	}
}

func TestSession_DefaultBalancesSort(t *testing.T) {
	s := newSession(uuid.New())

	got := s.Criteria(ViewBalances)
	if len(got) != 1 || got[0] != (grid.Criterion{Key: "due", Direction: grid.Desc}) {
		t.Errorf("balances criteria = %+v", got)
	}
	if len(s.Criteria(ViewRefunds)) != 0 {
		t.Error("task views should start in natural order")
	}
}

func TestSession_DefaultSortNotShared(t *testing.T) {
	a := newSession(uuid.New())
	b := newSession(uuid.New())

	a.ToggleSort(ViewBalances, "due") // desc -> removed
	if len(b.Criteria(ViewBalances)) != 1 {
		t.Error("toggling one session's sort leaked into another")
	}
}

func TestSession_SetTasksReseedsAcrossKinds(t *testing.T) {
	s := newSession(uuid.New())
	refund := refundTask("r1", true)
	payment := refundTask("p1", true)
	payment.Kind = recon.KindPendingPayment

	s.SetTasks(recon.KindRefund, []*recon.Task{refund}, "")
	s.SetTasks(recon.KindPendingPayment, []*recon.Task{payment}, "")

	no := false
	reason := "operator note kept across refresh"
	s.PatchDraft(refund, recon.Patch{Decision: &no, OverrideReason: &reason})

	// Refreshing the other kind must not disturb the refund draft.
	s.SetTasks(recon.KindPendingPayment, []*recon.Task{payment}, "")
	if d := s.DraftFor(refund); d.OverrideReason != reason {
		t.Errorf("draft lost on unrelated refresh: %+v", d)
	}
}

func TestSessionStore_OneSessionPerOperator(t *testing.T) {
	st := NewSessionStore()
	opA, opB := uuid.New(), uuid.New()

	if st.Get(opA) != st.Get(opA) {
		t.Error("same operator should get the same session")
	}
	if st.Get(opA) == st.Get(opB) {
		t.Error("different operators must not share a session")
	}
}

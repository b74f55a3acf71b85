// Package workbench composes the grid, the reconciliation task model and the
// confirmation gate into the five admin views, and owns all per-operator
// mutable state. It is the only writer of the sort-state and draft maps; every
// mutation goes through the pure transition functions in grid and recon.
package workbench

import (
	"github.com/centrumkenaz/backend/internal/grid"
	"github.com/centrumkenaz/backend/internal/recon"
)

// ViewID names one of the fixed admin screens.
type ViewID string

const (
	ViewPendingPayments ViewID = "pending-payments"
	ViewRefunds         ViewID = "refunds"
	ViewPromotions      ViewID = "promotions"
	ViewSubscriptions   ViewID = "subscriptions"
	ViewBalances        ViewID = "balances"
)

var viewOrder = []ViewID{
	ViewPendingPayments,
	ViewRefunds,
	ViewPromotions,
	ViewSubscriptions,
	ViewBalances,
}

var viewLabels = map[ViewID]string{
	ViewPendingPayments: "Pending payments",
	ViewRefunds:         "Refund tasks",
	ViewPromotions:      "Waitlist promotions",
	ViewSubscriptions:   "Subscription purchases",
	ViewBalances:        "Balance breakdown",
}

var viewKinds = map[ViewID]recon.Kind{
	ViewPendingPayments: recon.KindPendingPayment,
	ViewRefunds:         recon.KindRefund,
	ViewPromotions:      recon.KindPromotion,
	ViewSubscriptions:   recon.KindSubscription,
}

// defaultSort seeds the per-view sort state. Most views start in the server's
// natural order; the balance breakdown opens on the largest outstanding dues.
var defaultSort = grid.State{
	string(ViewBalances): {{Key: "due", Direction: grid.Desc}},
}

// ParseView maps the persisted UI parameter to a view, falling back to the
// pending payments view for unknown or empty values.
func ParseView(param string) ViewID {
	v := ViewID(param)
	if _, ok := viewLabels[v]; ok {
		return v
	}
	return ViewPendingPayments
}

// KindForView returns the task kind behind a view. The balance breakdown has
// no task kind; it is grid-only.
func KindForView(v ViewID) (recon.Kind, bool) {
	k, ok := viewKinds[v]
	return k, ok
}

// Views returns the fixed view order.
func Views() []ViewID {
	out := make([]ViewID, len(viewOrder))
	copy(out, viewOrder)
	return out
}

// Label returns the human label for a view.
func Label(v ViewID) string { return viewLabels[v] }

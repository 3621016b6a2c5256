package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderLine is the canonical order input. Everything monetary is derived
// from it; the "invest amount" shown to users is a read-only mirror of
// quantity times price, never independently editable.
type OrderLine struct {
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// FeeComponent is one externally supplied charge (brokerage, GST, stamp
// duty). The gateway aggregates components, it never computes them.
type FeeComponent struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// FeeSchedule is the set of charges applied to an order.
type FeeSchedule struct {
	Components []FeeComponent `json:"components"`
}

// Total sums the schedule.
func (f FeeSchedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range f.Components {
		total = total.Add(c.Amount)
	}
	return total
}

// Totals is the derived-only money view. Never mutated independently;
// always recomputed from the line and schedule.
type Totals struct {
	OrderValue         decimal.Decimal  `json:"order_value"`
	TotalFees          decimal.Decimal  `json:"total_fees"`
	TotalPayable       decimal.Decimal  `json:"total_payable"`
	EffectiveUnitPrice *decimal.Decimal `json:"effective_unit_price,omitempty"`
}

// Disclosure is one item the user must read before trading. Mandatory
// items gate the final consent.
type Disclosure struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Mandatory bool   `json:"mandatory"`
}

// ReviewState is the order-review machine state.
type ReviewState string

const (
	StateReviewing ReviewState = "reviewing"
	StateConfirmed ReviewState = "confirmed"
)

// Session is one checkout. Created when the user reaches review, discarded
// on navigation away or successful submission.
type Session struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Symbol string    `json:"symbol"`
	Side   Side      `json:"side"`

	Line   OrderLine   `json:"line"`
	Fees   FeeSchedule `json:"fees"`
	Totals Totals      `json:"totals"`

	Acknowledgments map[string]bool `json:"acknowledgments"`
	FinalConsent    bool            `json:"final_consent"`

	State ReviewState `json:"state"`
	// AuthorizedAt is set at the instant Confirm is invoked while the
	// readiness predicate holds: the moment of authorization, not the
	// moment of reading.
	AuthorizedAt *time.Time `json:"authorized_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitResult is the payment collaborator's answer.
type SubmitResult struct {
	Accepted  bool
	Reference string
	Reason    string
}

//go:generate mockgen -source=models.go -destination=mocks/mocks.go -package=mocks

// SubmitGateway forwards an authorized order for payment. Invoked only
// when the final-readiness predicate is true.
type SubmitGateway interface {
	Submit(ctx context.Context, line OrderLine, totals Totals) (SubmitResult, error)
}

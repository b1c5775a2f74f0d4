package entitlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single charge on a projected invoice. Amounts are integer
// minor units of the invoice currency.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	Amount      int64  `json:"amount"`
	PlanLabel   string `json:"plan_label,omitempty"`
	Proration   bool   `json:"proration"`
}

// InvoiceProjection is a read-only preview of the next invoice as the
// billing system would issue it today. It is never persisted.
type InvoiceProjection struct {
	Currency  string     `json:"currency"`
	Lines     []LineItem `json:"lines"`
	Subtotal  int64      `json:"subtotal"`
	Tax       int64      `json:"tax"`
	Total     int64      `json:"total"`
	PeriodEnd time.Time  `json:"period_end"`
}

// ApplyTaxRate computes the tax amount for the subtotal at the given
// percentage rate, rounding half up to the nearest minor unit. Used when the
// billing system reports a rate but no resolved tax amounts.
func ApplyTaxRate(subtotal int64, ratePercent decimal.Decimal) int64 {
	if ratePercent.IsZero() {
		return 0
	}
	tax := decimal.NewFromInt(subtotal).Mul(ratePercent).Div(decimal.NewFromInt(100))
	return tax.Round(0).IntPart()
}

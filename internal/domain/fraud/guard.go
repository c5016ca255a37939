package fraud

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FallbackCategory is the limit row used when a proposal's category has no
// dedicated entry in the table
const FallbackCategory = "OTHER"

// LimitTable maps (product category, risk classification) to the maximum
// permissible insured amount. The numeric limits are deployment
// configuration, not business logic baked into this package.
type LimitTable map[string]map[Classification]decimal.Decimal

// Guard decides whether a classified proposal may proceed past risk
// validation. It is a pure lookup-and-compare - no I/O, no side effects.
type Guard struct {
	limits LimitTable
}

// NewGuard creates a guard backed by the given limit table
func NewGuard(limits LimitTable) (*Guard, error) {
	if len(limits) == 0 {
		return nil, ErrEmptyLimitTable
	}
	for _, row := range limits {
		for _, limit := range row {
			if limit.IsNegative() {
				return nil, ErrNegativeLimit
			}
		}
	}
	return &Guard{limits: limits}, nil
}

// Decision is the guard's verdict for one proposal
type Decision struct {
	Approved       bool
	Category       string
	Classification Classification
	Limit          decimal.Decimal
	Requested      decimal.Decimal
	Reason         string
}

// Evaluate compares the requested insured amount against the limit
// configured for the (category, classification) pair. An unknown category
// falls back to the OTHER row. A pair with no configured limit fails closed.
func (g *Guard) Evaluate(classification Classification, category string, insuredAmount decimal.Decimal) Decision {
	decision := Decision{
		Category:       category,
		Classification: classification,
		Requested:      insuredAmount,
	}

	row, ok := g.limits[category]
	if !ok {
		row = g.limits[FallbackCategory]
	}
	limit, ok := row[classification]
	if !ok {
		decision.Reason = fmt.Sprintf(
			"no insured amount limit configured for category %s with classification %s",
			category, classification,
		)
		return decision
	}
	decision.Limit = limit

	if insuredAmount.GreaterThan(limit) {
		decision.Reason = fmt.Sprintf(
			"insured amount %s exceeds the %s limit of %s for category %s",
			insuredAmount.String(), classification, limit.String(), category,
		)
		return decision
	}

	decision.Approved = true
	return decision
}

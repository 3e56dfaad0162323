// Package settlement computes the monthly net debt between the two members.
//
// Shared (household) expenses are split 50/50: the member who did not pay
// owes half. Personal expenses paid by the other member are owed in full.
// Self-paid personal expenses move no money.
package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"conti/internal/core"
)

var (
	// ErrAnomalies refuses to record a result computed with skipped transactions.
	ErrAnomalies = errors.New("settlement has unresolved anomalies")
	// ErrNothingToSettle is returned when neither member owes anything.
	ErrNothingToSettle = errors.New("nothing to settle")
)

// Anomaly is an expense excluded from the calculation.
type Anomaly struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result holds the month totals. Diff = OwesA - OwesB: positive means A pays
// B, negative means B pays A.
type Result struct {
	Month     core.Month `json:"month"`
	OwesA     core.Money `json:"owes_a_cents"`
	OwesB     core.Money `json:"owes_b_cents"`
	Diff      core.Money `json:"diff_cents"`
	Counted   int        `json:"counted"`
	Anomalies []Anomaly  `json:"anomalies,omitempty"`
}

// Transfer is the single payment that settles a Result.
type Transfer struct {
	From    core.Person `json:"from,omitempty"`
	To      core.Person `json:"to,omitempty"`
	Amount  core.Money  `json:"amount_cents"`
	Settled bool        `json:"settled"`
}

func (t Transfer) Describe(names core.Names) string {
	if t.Settled {
		return "settled"
	}
	return fmt.Sprintf("%s pays %s %s", names.Name(t.From), names.Name(t.To), t.Amount)
}

// Transfer derives who pays whom from the sign of Diff.
func (r Result) Transfer() Transfer { return transferFor(r.Diff) }

// Outstanding is the transfer still owed once the settlements already
// recorded for the month (signed like Diff) are taken into account.
func (r Result) Outstanding(recorded core.Money) Transfer {
	return transferFor(r.Diff.Sub(recorded))
}

func transferFor(diff core.Money) Transfer {
	switch {
	case diff.Cents > 0:
		return Transfer{From: core.UserA, To: core.UserB, Amount: diff}
	case diff.Cents < 0:
		return Transfer{From: core.UserB, To: core.UserA, Amount: diff.Abs()}
	default:
		return Transfer{Settled: true}
	}
}

// Calculate runs the split over the expenses of txs dated in m. Income and
// other months are ignored. Expenses with a payer or beneficiary outside the
// known set are excluded and reported as anomalies.
func Calculate(txs []core.Transaction, m core.Month) Result {
	// Accumulators count half-cents so a 50/50 split is exact; each total is
	// rounded once at the end.
	var halvesA, halvesB int64
	res := Result{Month: m}

	for _, t := range txs {
		if t.Type != core.Expense || !m.Contains(t.Date) {
			continue
		}
		if t.Value.Cents <= 0 {
			res.Anomalies = append(res.Anomalies, Anomaly{ID: t.ID, Reason: core.ErrInvalidAmount.Error()})
			continue
		}
		if !t.PaidBy.IsMember() {
			res.Anomalies = append(res.Anomalies, Anomaly{ID: t.ID, Reason: fmt.Sprintf("%v: %s", core.ErrInvalidPayer, t.PaidBy)})
			continue
		}
		v := t.Value.Cents
		switch t.AssignedTo {
		case core.Household:
			if t.PaidBy == core.UserA {
				halvesB += v
			} else {
				halvesA += v
			}
		case core.UserA:
			if t.PaidBy == core.UserB {
				halvesA += 2 * v
			}
		case core.UserB:
			if t.PaidBy == core.UserA {
				halvesB += 2 * v
			}
		default:
			res.Anomalies = append(res.Anomalies, Anomaly{ID: t.ID, Reason: fmt.Sprintf("%v: %s", core.ErrInvalidBeneficiary, t.AssignedTo)})
			continue
		}
		res.Counted++
	}

	res.OwesA = core.Cents(halvesA).DivRound(2)
	res.OwesB = core.Cents(halvesB).DivRound(2)
	res.Diff = res.OwesA.Sub(res.OwesB)
	return res
}

// NewRecord turns a result into the settlement to append, covering only what
// recorded has not already paid. It refuses results with anomalies and
// results where nothing is left to pay.
func NewRecord(r Result, recorded core.Money, id string, now time.Time) (core.Settlement, error) {
	if len(r.Anomalies) > 0 {
		ids := make([]string, len(r.Anomalies))
		for i, a := range r.Anomalies {
			ids[i] = a.ID
		}
		return core.Settlement{}, fmt.Errorf("%w: %s", ErrAnomalies, strings.Join(ids, ", "))
	}
	tr := r.Outstanding(recorded)
	if tr.Settled {
		return core.Settlement{}, ErrNothingToSettle
	}
	s := core.Settlement{
		ID:     id,
		Month:  r.Month,
		From:   tr.From,
		To:     tr.To,
		Amount: tr.Amount,
		Date:   now,
	}
	if err := s.Validate(); err != nil {
		return core.Settlement{}, fmt.Errorf("build settlement: %w", err)
	}
	return s, nil
}

// History returns the settlements recorded for m, oldest first.
func History(settlements []core.Settlement, m core.Month) []core.Settlement {
	out := make([]core.Settlement, 0)
	for _, s := range settlements {
		if s.Month == m {
			out = append(out, s)
		}
	}
	return out
}

// Recorded sums the settlements already recorded for m, signed the same way
// as Diff: A paying B counts positive.
func Recorded(settlements []core.Settlement, m core.Month) core.Money {
	var total core.Money
	for _, s := range History(settlements, m) {
		if s.From == core.UserA {
			total = total.Add(s.Amount)
		} else {
			total = total.Sub(s.Amount)
		}
	}
	return total
}

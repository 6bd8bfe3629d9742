// Package schedule derives payment obligations from lease contract terms.
// Generation is pure: persistence of the returned obligations is the
// caller's responsibility.
package schedule

import (
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
)

// ProrationPolicy computes the amount of a monthly contract's final
// obligation whose period is cut short by the contract end date.
// remainingDays counts both endpoints of the truncated period.
type ProrationPolicy func(rent float64, remainingDays int) float64

// Fixed30DayMonth prorates against a fixed 30-day month regardless of the
// actual month length. This mirrors the established business calculation;
// it is a named policy so callers can swap it without touching the
// generator.
func Fixed30DayMonth(rent float64, remainingDays int) float64 {
	return rent * float64(remainingDays) / 30.0
}

// Generator produces payment schedules for contracts.
type Generator struct {
	prorate ProrationPolicy
}

// NewGenerator creates a generator. A nil policy selects Fixed30DayMonth.
func NewGenerator(policy ProrationPolicy) *Generator {
	if policy == nil {
		policy = Fixed30DayMonth
	}
	return &Generator{prorate: policy}
}

// Generate returns the ordered payment obligations implied by the contract
// terms: one obligation per payment period from the start date, amount
// rent times the period length in months. On monthly contracts the final
// obligation is prorated when the contract ends before its period
// boundary; quarterly, semi-annual and annual contracts always charge the
// full period amount. Due dates are
// strictly increasing and the set covers [start, end] with no gaps. A
// contract whose start equals its end yields exactly one obligation.
func (g *Generator) Generate(c domain.Contract) ([]domain.PaymentObligation, error) {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return nil, errors.NewValidationError("contract start and end dates are required", nil)
	}

	start := domain.Day(c.StartDate)
	end := domain.Day(c.EndDate)
	if end.Before(start) {
		return nil, errors.NewValidationError("contract end date precedes start date", nil)
	}
	if c.RentAmount <= 0 {
		return nil, errors.NewValidationError("contract rent amount must be positive", nil)
	}

	months := c.Frequency.Months()
	periodAmount := c.RentAmount * float64(months)
	monthly := c.Frequency.Normalize() == domain.FrequencyMonthly

	var obligations []domain.PaymentObligation
	current := start
	for seq := 1; !current.After(end); seq++ {
		next := current.AddDate(0, months, 0)
		amount := periodAmount
		// Only monthly contracts prorate a short final period; longer
		// frequencies keep the full period amount.
		if monthly && next.After(end) {
			amount = g.prorate(c.RentAmount, remainingDays(current, end))
		}
		obligations = append(obligations, domain.PaymentObligation{
			ContractID: c.ID,
			CompanyID:  c.CompanyID,
			Sequence:   seq,
			DueDate:    current,
			Amount:     amount,
			Status:     domain.ObligationStatusPending,
		})
		current = next
	}

	return obligations, nil
}

// remainingDays counts the days from current through end inclusive.
func remainingDays(current, end time.Time) int {
	return int(end.Sub(current).Hours()/24) + 1
}

// Package calculation derives the monthly benefit amount from a case's grounds.
package calculation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/condition"
	"github.com/garyjia/benefit-casework/internal/domain/period"
)

var (
	// ErrMissingLivingSituation is returned when a month has no living situation
	ErrMissingLivingSituation = errors.New("no living situation for month")

	// ErrNegativeDeduction is returned when a deduction has a negative amount
	ErrNegativeDeduction = errors.New("deduction amount cannot be negative")
)

// MonthResult is the calculated benefit for one month
type MonthResult struct {
	Month      period.Month `json:"month"`
	Rate       int64        `json:"rate"`
	Deductions int64        `json:"deductions"`
	Amount     int64        `json:"amount"`
	HighRate   bool         `json:"high_rate"`
}

// Calculation is the result of calculating a case
type Calculation struct {
	ID             uuid.UUID     `json:"id"`
	Period         period.Period `json:"period"`
	Months         []MonthResult `json:"months"`
	MinimumPayable int64         `json:"minimum_payable"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Total returns the sum of every monthly amount
func (c Calculation) Total() int64 {
	var total int64
	for _, m := range c.Months {
		total += m.Amount
	}
	return total
}

// DenialGround evaluates the calculation against the payable threshold. The
// first month with a remark decides: a month with nothing left to pay means the
// income is too high, a month below the minimum payable amount means the
// benefit is too small to be paid.
func (c Calculation) DenialGround() (condition.Ground, bool) {
	for _, m := range c.Months {
		if m.Amount <= 0 {
			return condition.GroundTooHighIncome, true
		}
		if m.Amount < c.MinimumPayable {
			return condition.GroundBelowMinimumPayable, true
		}
	}
	return "", false
}

// Request is the input to a calculation
type Request struct {
	CaseID       uuid.UUID
	Period       period.Period
	Category     condition.Category
	Grounds      condition.Grounds
	OffsetAmount int64
	At           time.Time
}

// Calculator calculates a case. Implementations must be free of I/O.
type Calculator interface {
	Calculate(req Request) (Calculation, error)
}

// CalculatorFunc adapts a function to Calculator
type CalculatorFunc func(req Request) (Calculation, error)

// Calculate calls f(req)
func (f CalculatorFunc) Calculate(req Request) (Calculation, error) {
	return f(req)
}

// Rates holds the yearly base amount and the factors applied to it
type Rates struct {
	BaseAmount         int64
	HighRateFactor     float64
	OrdinaryRateFactor float64
	MinimumShare       float64
	SpouseAllowance    int64
}

// DefaultRates returns the rates in force from May 2024
func DefaultRates() Rates {
	return Rates{
		BaseAmount:         124028,
		HighRateFactor:     2.48,
		OrdinaryRateFactor: 2.329,
		MinimumShare:       0.02,
		SpouseAllowance:    0,
	}
}

// HighMonthly returns the monthly high rate
func (r Rates) HighMonthly() int64 {
	return int64(math.Round(float64(r.BaseAmount) * r.HighRateFactor / 12))
}

// OrdinaryMonthly returns the monthly ordinary rate
func (r Rates) OrdinaryMonthly() int64 {
	return int64(math.Round(float64(r.BaseAmount) * r.OrdinaryRateFactor / 12))
}

// MinimumPayable returns the smallest monthly amount that is paid out
func (r Rates) MinimumPayable() int64 {
	return int64(math.Round(float64(r.HighMonthly()) * r.MinimumShare))
}

// RateCalculator calculates the benefit as the monthly rate minus deductions
type RateCalculator struct {
	rates Rates
}

// NewRateCalculator creates a calculator using the given rates
func NewRateCalculator(rates Rates) *RateCalculator {
	return &RateCalculator{rates: rates}
}

// Calculate implements Calculator
func (c *RateCalculator) Calculate(req Request) (Calculation, error) {
	for _, d := range req.Grounds.Deductions {
		if d.MonthlyAmount < 0 {
			return Calculation{}, fmt.Errorf("%w: %s %d", ErrNegativeDeduction, d.Type, d.MonthlyAmount)
		}
	}

	months := req.Period.Months()
	offsets := spread(req.OffsetAmount, len(months))
	results := make([]MonthResult, 0, len(months))

	for i, m := range months {
		living, ok := req.Grounds.LivingSituationIn(m)
		if !ok {
			return Calculation{}, fmt.Errorf("%w: %s", ErrMissingLivingSituation, m)
		}

		rate := c.rates.OrdinaryMonthly()
		if living.HighRate() {
			rate = c.rates.HighMonthly()
		}

		var applicant, spouse int64
		for _, d := range req.Grounds.DeductionsIn(m) {
			switch d.Owner {
			case condition.OwnerSpouse:
				spouse += d.MonthlyAmount
			default:
				applicant += d.MonthlyAmount
			}
		}

		deductions := applicant + offsets[i]
		if living.HasSpouse() && spouse > c.rates.SpouseAllowance {
			deductions += spouse - c.rates.SpouseAllowance
		}

		amount := rate - deductions
		if amount < 0 {
			amount = 0
		}

		results = append(results, MonthResult{
			Month:      m,
			Rate:       rate,
			Deductions: deductions,
			Amount:     amount,
			HighRate:   living.HighRate(),
		})
	}

	return Calculation{
		ID:             uuid.New(),
		Period:         req.Period,
		Months:         results,
		MinimumPayable: c.rates.MinimumPayable(),
		CreatedAt:      req.At,
	}, nil
}

// spread divides amount over n months, putting the remainder in the first months
func spread(amount int64, n int) []int64 {
	out := make([]int64, n)
	if n == 0 || amount <= 0 {
		return out
	}
	share := amount / int64(n)
	rest := amount % int64(n)
	for i := range out {
		out[i] = share
		if int64(i) < rest {
			out[i]++
		}
	}
	return out
}

// Verify interface compliance
var _ Calculator = (*RateCalculator)(nil)

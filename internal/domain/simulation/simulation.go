// Package simulation holds the result of a payment dry-run.
package simulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/benefit-casework/internal/domain/period"
)

// Month is the simulated payment for one month
type Month struct {
	Month       period.Month `json:"month"`
	Gross       int64        `json:"gross"`
	Overpayment int64        `json:"overpayment"`
}

// Simulation is the payment engine's view of what a decision would pay out
type Simulation struct {
	ID          uuid.UUID     `json:"id"`
	Period      period.Period `json:"period"`
	Months      []Month       `json:"months"`
	SimulatedAt time.Time     `json:"simulated_at"`
}

// HasOverpayment reports whether any month would recover money already paid
func (s Simulation) HasOverpayment() bool {
	for _, m := range s.Months {
		if m.Overpayment > 0 {
			return true
		}
	}
	return false
}

// TotalOverpayment returns the sum of every month's overpayment
func (s Simulation) TotalOverpayment() int64 {
	var total int64
	for _, m := range s.Months {
		total += m.Overpayment
	}
	return total
}

// TotalGross returns the sum of every month's gross payment
func (s Simulation) TotalGross() int64 {
	var total int64
	for _, m := range s.Months {
		total += m.Gross
	}
	return total
}

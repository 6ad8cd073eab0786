package port

import (
	"context"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

// SimulationClient asks the payment system what a decision would pay out
type SimulationClient interface {
	Simulate(ctx context.Context, req casework.SimulationRequest) (simulation.Simulation, error)
}

// Clock supplies the time recorded on commands
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f()
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the wall clock in UTC
var SystemClock = ClockFunc(func() time.Time { return time.Now().UTC() })

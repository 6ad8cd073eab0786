package simulator

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

// DryRun simulates locally: every calculated month pays out in full and
// nothing is recovered. Used when no payment system is configured.
type DryRun struct {
	clock  port.Clock
	logger *zap.Logger
}

// NewDryRun creates a local simulator
func NewDryRun(clock port.Clock, logger *zap.Logger) *DryRun {
	if clock == nil {
		clock = port.SystemClock
	}
	return &DryRun{clock: clock, logger: logger}
}

// Simulate echoes the calculation
func (d *DryRun) Simulate(ctx context.Context, req casework.SimulationRequest) (simulation.Simulation, error) {
	if err := ctx.Err(); err != nil {
		return simulation.Simulation{}, err
	}

	months := make([]simulation.Month, 0, len(req.Calculation.Months))
	for _, m := range req.Calculation.Months {
		months = append(months, simulation.Month{Month: m.Month, Gross: m.Amount})
	}

	d.logger.Debug("Dry-run simulation", zap.String("case_id", req.CaseID.String()))
	return simulation.Simulation{
		ID:          uuid.New(),
		Period:      req.Period,
		Months:      months,
		SimulatedAt: d.clock.Now(),
	}, nil
}

// Verify interface compliance
var _ port.SimulationClient = (*DryRun)(nil)

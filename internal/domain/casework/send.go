package casework

import (
	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// SendInput is the preparer's command to send a case for attestation. The
// actor is recorded as the preparer.
type SendInput struct {
	Command
}

// SendForAttestation hands a finished case to a second caseworker
func SendForAttestation(c Case, in SendInput) (Case, error) {
	const op = "SendForAttestation"

	switch c.(type) {
	case ConditionsAssessedDenied, CalculatedDenied, Simulated,
		ReturnedApproved, ReturnedDeniedWithCalculation, ReturnedDeniedWithoutCalculation:
	default:
		return nil, invalidTransition(c, workflow.ActionSendForAttestation)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkLivingSituations(c); err != nil {
		return nil, err
	}

	preparer := in.Actor
	switch v := c.(type) {
	case ConditionsAssessedDenied:
		return build(op, AwaitingAttestationDeniedWithoutCalculation{
			Common:   v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Preparer: preparer,
		})
	case ReturnedDeniedWithoutCalculation:
		return build(op, AwaitingAttestationDeniedWithoutCalculation{
			Common:   v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Preparer: preparer,
		})
	case CalculatedDenied:
		return build(op, AwaitingAttestationDeniedWithCalculation{
			Common:      v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Calculation: v.Calculation,
			Preparer:    preparer,
		})
	case ReturnedDeniedWithCalculation:
		return build(op, AwaitingAttestationDeniedWithCalculation{
			Common:      v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Calculation: v.Calculation,
			Preparer:    preparer,
		})
	case Simulated:
		if err := checkSimulationForSend(v.Simulation); err != nil {
			return nil, err
		}
		return build(op, AwaitingAttestationApproved{
			Common:      v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Calculation: v.Calculation,
			Simulation:  v.Simulation,
			Preparer:    preparer,
		})
	case ReturnedApproved:
		if err := checkSimulationForSend(v.Simulation); err != nil {
			return nil, err
		}
		return build(op, AwaitingAttestationApproved{
			Common:      v.record(in.Actor, in.At, workflow.ActionSendForAttestation),
			Calculation: v.Calculation,
			Simulation:  v.Simulation,
			Preparer:    preparer,
		})
	default:
		return nil, invariant(c.Info().ID, op, "unhandled variant %T", c)
	}
}

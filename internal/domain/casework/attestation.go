package casework

import (
	"slices"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// AttestationVerdict is the approver's decision
type AttestationVerdict string

const (
	AttestationApproved AttestationVerdict = "APPROVED"
	AttestationRejected AttestationVerdict = "REJECTED"
)

// ReworkGround is what the approver asks the preparer to look at again
type ReworkGround string

const (
	ReworkConditions      ReworkGround = "CONDITIONS"
	ReworkLivingSituation ReworkGround = "LIVING_SITUATION"
	ReworkCalculation     ReworkGround = "CALCULATION"
	ReworkSimulation      ReworkGround = "SIMULATION"
	ReworkLetter          ReworkGround = "LETTER"
	ReworkOther           ReworkGround = "OTHER"
)

// IsValid returns true if the ground is a known value
func (g ReworkGround) IsValid() bool {
	switch g {
	case ReworkConditions, ReworkLivingSituation, ReworkCalculation,
		ReworkSimulation, ReworkLetter, ReworkOther:
		return true
	default:
		return false
	}
}

// RejectionReason explains why a case was sent back
type RejectionReason struct {
	Grounds []ReworkGround `json:"grounds"`
	Comment string         `json:"comment"`
}

func (r RejectionReason) validate() error {
	if len(r.Grounds) == 0 {
		return ErrMissingReason
	}
	for _, g := range r.Grounds {
		if !g.IsValid() {
			return ErrInvalidReworkGround
		}
	}
	return nil
}

// Attestation is one approver decision
type Attestation struct {
	Approver Actor              `json:"approver"`
	Verdict  AttestationVerdict `json:"verdict"`
	Reason   *RejectionReason   `json:"reason,omitempty"`
	At       time.Time          `json:"at"`
}

// Attestations is the append-only list of approver decisions on a case
type Attestations []Attestation

// Latest returns the most recent attestation
func (a Attestations) Latest() (Attestation, bool) {
	if len(a) == 0 {
		return Attestation{}, false
	}
	return a[len(a)-1], true
}

func (a Attestations) with(att Attestation) Attestations {
	out := make(Attestations, len(a), len(a)+1)
	copy(out, a)
	return append(out, att)
}

// ApproveInput is the approver's command to finalize a decision. Offset is the
// current state of the sak's offset record and is only consulted when the case
// pays out with a pending offset.
type ApproveInput struct {
	Command
	Offset *OffsetRecord
}

// RejectInput is the approver's command to send a case back for rework
type RejectInput struct {
	Command
	Reason RejectionReason
}

// checkApprover rejects an approver who also prepared the case. It runs before
// every other attestation guard.
func checkApprover(preparer Actor, cmd Command) error {
	if cmd.Actor != "" && cmd.Actor == preparer {
		return ErrSamePreparerAndApprover
	}
	return cmd.validate()
}

func attest(common Common, cmd Command, action workflow.Action, att Attestation) Common {
	out := common.record(cmd.Actor, cmd.At, action)
	out.Attestations = out.Attestations.with(att)
	return out
}

// Approve finalizes a case awaiting attestation
func Approve(c Case, in ApproveInput) (Case, error) {
	const op = "Approve"

	preparer, ok := awaitingPreparer(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionApprove)
	}
	if err := checkApprover(preparer, in.Command); err != nil {
		return nil, err
	}
	if err := checkLivingSituations(c); err != nil {
		return nil, err
	}

	att := Attestation{Approver: in.Actor, Verdict: AttestationApproved, At: in.At}

	switch v := c.(type) {
	case AwaitingAttestationApproved:
		if err := checkNoOverpayment(v.ID, op, v.Simulation); err != nil {
			return nil, err
		}
		if err := checkOffset(v.Common, op, in.Offset); err != nil {
			return nil, err
		}
		common := attest(v.Common, in.Command, workflow.ActionApprove, att)
		if common.Offset != nil {
			common.Offset.Status = OffsetConsumed
		}
		return build(op, DecidedApproved{
			Common:      common,
			Calculation: v.Calculation,
			Simulation:  v.Simulation,
			Preparer:    v.Preparer,
		})
	case AwaitingAttestationDeniedWithCalculation:
		return build(op, DecidedDeniedWithCalculation{
			Common:      attest(v.Common, in.Command, workflow.ActionApprove, att),
			Calculation: v.Calculation,
			Preparer:    v.Preparer,
		})
	case AwaitingAttestationDeniedWithoutCalculation:
		return build(op, DecidedDeniedWithoutCalculation{
			Common:   attest(v.Common, in.Command, workflow.ActionApprove, att),
			Preparer: v.Preparer,
		})
	default:
		return nil, invariant(c.Info().ID, op, "unhandled variant %T", c)
	}
}

// Reject sends a case awaiting attestation back to the preparer. Every piece of
// data is kept so the preparer can resume at any step.
func Reject(c Case, in RejectInput) (Case, error) {
	const op = "Reject"

	preparer, ok := awaitingPreparer(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionReject)
	}
	if err := checkApprover(preparer, in.Command); err != nil {
		return nil, err
	}
	if err := in.Reason.validate(); err != nil {
		return nil, err
	}

	reason := RejectionReason{Grounds: slices.Clone(in.Reason.Grounds), Comment: in.Reason.Comment}
	att := Attestation{Approver: in.Actor, Verdict: AttestationRejected, Reason: &reason, At: in.At}

	switch v := c.(type) {
	case AwaitingAttestationApproved:
		return build(op, ReturnedApproved{
			Common:      attest(v.Common, in.Command, workflow.ActionReject, att),
			Calculation: v.Calculation,
			Simulation:  v.Simulation,
			Preparer:    v.Preparer,
		})
	case AwaitingAttestationDeniedWithCalculation:
		return build(op, ReturnedDeniedWithCalculation{
			Common:      attest(v.Common, in.Command, workflow.ActionReject, att),
			Calculation: v.Calculation,
			Preparer:    v.Preparer,
		})
	case AwaitingAttestationDeniedWithoutCalculation:
		return build(op, ReturnedDeniedWithoutCalculation{
			Common:   attest(v.Common, in.Command, workflow.ActionReject, att),
			Preparer: v.Preparer,
		})
	default:
		return nil, invariant(c.Info().ID, op, "unhandled variant %T", c)
	}
}

func awaitingPreparer(c Case) (Actor, bool) {
	switch v := c.(type) {
	case AwaitingAttestationApproved:
		return v.Preparer, true
	case AwaitingAttestationDeniedWithCalculation:
		return v.Preparer, true
	case AwaitingAttestationDeniedWithoutCalculation:
		return v.Preparer, true
	default:
		return "", false
	}
}

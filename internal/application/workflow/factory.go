package workflow

import (
	domainwf "github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// editableStatuses accept condition, grounds and period edits. Each such edit
// lands in whichever conditions status the aggregate verdict points to.
var editableStatuses = []domainwf.Status{
	domainwf.StatusConditionsAssessedUndetermined,
	domainwf.StatusConditionsAssessedApproved,
	domainwf.StatusConditionsAssessedDenied,
	domainwf.StatusCalculatedApproved,
	domainwf.StatusCalculatedDenied,
	domainwf.StatusSimulated,
	domainwf.StatusReturnedApproved,
	domainwf.StatusReturnedDeniedWithCalculation,
	domainwf.StatusReturnedDeniedWithoutCalculation,
}

var conditionStatuses = []domainwf.Status{
	domainwf.StatusConditionsAssessedUndetermined,
	domainwf.StatusConditionsAssessedApproved,
	domainwf.StatusConditionsAssessedDenied,
}

// BuildCaseLifecycle creates the table of actions permitted per case status
func BuildCaseLifecycle() domainwf.Table {
	builder := domainwf.NewTableBuilder()

	for _, status := range editableStatuses {
		builder.From(status).
			Permit(domainwf.ActionAssessCondition, conditionStatuses...).
			Permit(domainwf.ActionUpdateLivingSituations, conditionStatuses...).
			Permit(domainwf.ActionUpdateDeductions, conditionStatuses...).
			Permit(domainwf.ActionUpdateBenefitPeriod, conditionStatuses...).
			Permit(domainwf.ActionUpdateLetterNote, status)
	}
	for _, status := range domainwf.AllStatuses() {
		if !status.IsTerminal() {
			builder.From(status).Permit(domainwf.ActionUpdateTask, status)
		}
	}

	// Calculation needs approved conditions
	for _, status := range []domainwf.Status{
		domainwf.StatusConditionsAssessedApproved,
		domainwf.StatusCalculatedApproved,
		domainwf.StatusCalculatedDenied,
		domainwf.StatusSimulated,
		domainwf.StatusReturnedApproved,
		domainwf.StatusReturnedDeniedWithCalculation,
	} {
		builder.From(status).
			Permit(domainwf.ActionCalculate, domainwf.StatusCalculatedApproved, domainwf.StatusCalculatedDenied)
	}

	for _, status := range []domainwf.Status{
		domainwf.StatusCalculatedApproved,
		domainwf.StatusSimulated,
		domainwf.StatusReturnedApproved,
	} {
		builder.From(status).Permit(domainwf.ActionSimulate, domainwf.StatusSimulated)
	}

	// Send for attestation
	builder.From(domainwf.StatusConditionsAssessedDenied).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithoutCalculation)
	builder.From(domainwf.StatusCalculatedDenied).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithCalculation)
	builder.From(domainwf.StatusSimulated).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationApproved)
	builder.From(domainwf.StatusReturnedApproved).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationApproved)
	builder.From(domainwf.StatusReturnedDeniedWithCalculation).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithCalculation)
	builder.From(domainwf.StatusReturnedDeniedWithoutCalculation).
		Permit(domainwf.ActionSendForAttestation, domainwf.StatusAwaitingAttestationDeniedWithoutCalculation)

	// Attestation
	builder.From(domainwf.StatusAwaitingAttestationApproved).
		Permit(domainwf.ActionApprove, domainwf.StatusDecidedApproved).
		Permit(domainwf.ActionReject, domainwf.StatusReturnedApproved)
	builder.From(domainwf.StatusAwaitingAttestationDeniedWithCalculation).
		Permit(domainwf.ActionApprove, domainwf.StatusDecidedDeniedWithCalculation).
		Permit(domainwf.ActionReject, domainwf.StatusReturnedDeniedWithCalculation)
	builder.From(domainwf.StatusAwaitingAttestationDeniedWithoutCalculation).
		Permit(domainwf.ActionApprove, domainwf.StatusDecidedDeniedWithoutCalculation).
		Permit(domainwf.ActionReject, domainwf.StatusReturnedDeniedWithoutCalculation)

	// Closing is only possible before the case is sent for attestation
	for _, status := range []domainwf.Status{
		domainwf.StatusConditionsAssessedUndetermined,
		domainwf.StatusConditionsAssessedApproved,
		domainwf.StatusConditionsAssessedDenied,
		domainwf.StatusCalculatedApproved,
		domainwf.StatusCalculatedDenied,
		domainwf.StatusSimulated,
	} {
		builder.From(status).Permit(domainwf.ActionClose, domainwf.StatusClosed)
	}

	// Decided and CLOSED are terminal - no outgoing transitions

	return builder.Build()
}

package workflow

// Status identifies the variant a case is in
type Status string

const (
	StatusConditionsAssessedUndetermined Status = "CONDITIONS_ASSESSED_UNDETERMINED"
	StatusConditionsAssessedApproved     Status = "CONDITIONS_ASSESSED_APPROVED"
	StatusConditionsAssessedDenied       Status = "CONDITIONS_ASSESSED_DENIED"

	StatusCalculatedApproved Status = "CALCULATED_APPROVED"
	StatusCalculatedDenied   Status = "CALCULATED_DENIED"

	StatusSimulated Status = "SIMULATED"

	StatusAwaitingAttestationApproved                 Status = "AWAITING_ATTESTATION_APPROVED"
	StatusAwaitingAttestationDeniedWithCalculation    Status = "AWAITING_ATTESTATION_DENIED_WITH_CALCULATION"
	StatusAwaitingAttestationDeniedWithoutCalculation Status = "AWAITING_ATTESTATION_DENIED_WITHOUT_CALCULATION"

	StatusReturnedApproved                 Status = "RETURNED_APPROVED"
	StatusReturnedDeniedWithCalculation    Status = "RETURNED_DENIED_WITH_CALCULATION"
	StatusReturnedDeniedWithoutCalculation Status = "RETURNED_DENIED_WITHOUT_CALCULATION"

	StatusDecidedApproved                 Status = "DECIDED_APPROVED"
	StatusDecidedDeniedWithCalculation    Status = "DECIDED_DENIED_WITH_CALCULATION"
	StatusDecidedDeniedWithoutCalculation Status = "DECIDED_DENIED_WITHOUT_CALCULATION"

	StatusClosed Status = "CLOSED"
)

var validStatuses = map[Status]bool{
	StatusConditionsAssessedUndetermined:              true,
	StatusConditionsAssessedApproved:                  true,
	StatusConditionsAssessedDenied:                    true,
	StatusCalculatedApproved:                          true,
	StatusCalculatedDenied:                            true,
	StatusSimulated:                                   true,
	StatusAwaitingAttestationApproved:                 true,
	StatusAwaitingAttestationDeniedWithCalculation:    true,
	StatusAwaitingAttestationDeniedWithoutCalculation: true,
	StatusReturnedApproved:                            true,
	StatusReturnedDeniedWithCalculation:               true,
	StatusReturnedDeniedWithoutCalculation:            true,
	StatusDecidedApproved:                             true,
	StatusDecidedDeniedWithCalculation:                true,
	StatusDecidedDeniedWithoutCalculation:             true,
	StatusClosed:                                      true,
}

var terminalStatuses = map[Status]bool{
	StatusDecidedApproved:                 true,
	StatusDecidedDeniedWithCalculation:    true,
	StatusDecidedDeniedWithoutCalculation: true,
	StatusClosed:                          true,
}

var awaitingStatuses = map[Status]bool{
	StatusAwaitingAttestationApproved:                 true,
	StatusAwaitingAttestationDeniedWithCalculation:    true,
	StatusAwaitingAttestationDeniedWithoutCalculation: true,
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusConditionsAssessedUndetermined,
		StatusConditionsAssessedApproved,
		StatusConditionsAssessedDenied,
		StatusCalculatedApproved,
		StatusCalculatedDenied,
		StatusSimulated,
		StatusAwaitingAttestationApproved,
		StatusAwaitingAttestationDeniedWithCalculation,
		StatusAwaitingAttestationDeniedWithoutCalculation,
		StatusReturnedApproved,
		StatusReturnedDeniedWithCalculation,
		StatusReturnedDeniedWithoutCalculation,
		StatusDecidedApproved,
		StatusDecidedDeniedWithCalculation,
		StatusDecidedDeniedWithoutCalculation,
		StatusClosed,
	}
}

// IsTerminal returns true if no further transitions are allowed
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsAwaitingAttestation returns true while an approver has not yet decided
func (s Status) IsAwaitingAttestation() bool {
	return awaitingStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known case status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

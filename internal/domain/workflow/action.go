package workflow

// Action is a caseworker or approver command that moves a case between statuses
type Action string

const (
	ActionAssessCondition        Action = "ASSESS_CONDITION"
	ActionUpdateLivingSituations Action = "UPDATE_LIVING_SITUATIONS"
	ActionUpdateDeductions       Action = "UPDATE_DEDUCTIONS"
	ActionUpdateBenefitPeriod    Action = "UPDATE_BENEFIT_PERIOD"
	ActionCalculate              Action = "CALCULATE"
	ActionSimulate               Action = "SIMULATE"
	ActionSendForAttestation     Action = "SEND_FOR_ATTESTATION"
	ActionApprove                Action = "APPROVE"
	ActionReject                 Action = "REJECT"
	ActionClose                  Action = "CLOSE"

	// Edits that keep the case in its status and are not recorded in the history
	ActionUpdateLetterNote Action = "UPDATE_LETTER_NOTE"
	ActionUpdateTask       Action = "UPDATE_TASK"
)

// IsRecorded reports whether the action adds an entry to the case history
func (a Action) IsRecorded() bool {
	return a != ActionUpdateLetterNote && a != ActionUpdateTask
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is a known value
func (a Action) IsValid() bool {
	switch a {
	case ActionAssessCondition, ActionUpdateLivingSituations, ActionUpdateDeductions,
		ActionUpdateBenefitPeriod, ActionCalculate, ActionSimulate, ActionSendForAttestation,
		ActionApprove, ActionReject, ActionClose, ActionUpdateLetterNote, ActionUpdateTask:
		return true
	default:
		return false
	}
}

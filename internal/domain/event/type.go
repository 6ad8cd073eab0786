package event

// Type identifies the type of domain event
type Type string

const (
	TypeCaseCreated   Type = "case.created"
	TypeStatusChanged Type = "case.status_changed"
	TypeCaseUpdated   Type = "case.updated"
	TypeCaseSent      Type = "case.sent_for_attestation"
	TypeCaseReturned  Type = "case.returned"
	TypeCaseDecided   Type = "case.decided"
	TypeCaseClosed    Type = "case.closed"
	TypeFatalError    Type = "case.fatal_error"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeCaseCreated,
		TypeStatusChanged,
		TypeCaseUpdated,
		TypeCaseSent,
		TypeCaseReturned,
		TypeCaseDecided,
		TypeCaseClosed,
		TypeFatalError:
		return true
	default:
		return false
	}
}

package notification

// Outcome is the delivery result of one Telegram message.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeBlocked        Outcome = "blocked"
	OutcomeUserNotFound   Outcome = "user_not_found"
	OutcomeTechnicalError Outcome = "technical_error"
)

func (o Outcome) String() string {
	return string(o)
}

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeBlocked, OutcomeUserNotFound, OutcomeTechnicalError:
		return true
	}
	return false
}

// CountsAsSent is true when the recipient was reached or has chosen not to be.
// A bot blocked by the user is still a delivered warning.
func (o Outcome) CountsAsSent() bool {
	return o == OutcomeSuccess || o == OutcomeBlocked
}

// IsRetryable is true only for transient delivery failures.
func (o Outcome) IsRetryable() bool {
	return o == OutcomeTechnicalError
}

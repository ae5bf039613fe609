package violation

// Step is the escalation message a violation count maps to.
type Step string

const (
	StepWarning1 Step = "warning_1"
	StepWarning2 Step = "warning_2"
	StepReplace  Step = "key_replaced"
)

// StepFor maps the post-increment violation count to its escalation step.
func StepFor(count int) Step {
	switch {
	case count <= 1:
		return StepWarning1
	case count == 2:
		return StepWarning2
	default:
		return StepReplace
	}
}

func (s Step) IsValid() bool {
	return s == StepWarning1 || s == StepWarning2 || s == StepReplace
}

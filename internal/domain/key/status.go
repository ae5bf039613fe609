package key

type Status string

const (
	StatusIssued  Status = "issued"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo encodes the only forward moves a key may make:
// issued → active, issued → expired, active → expired.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusIssued:
		return target == StatusActive || target == StatusExpired
	case StatusActive:
		return target == StatusExpired
	default:
		return false
	}
}

var ValidStatuses = map[Status]bool{
	StatusIssued:  true,
	StatusActive:  true,
	StatusExpired: true,
}

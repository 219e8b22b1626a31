package order

type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateSubmitting
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSubmitting:
		return "submitting"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

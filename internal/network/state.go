package network

// State is the run state of a Network.
type State int

// Run states.
//
//	Idle -> Bound        every input_layout has data
//	Bound -> Running     Execute
//	Running -> Completed
//	Running -> Failed    kernel error or cancellation
//
// Completed and Failed networks keep their bound inputs and may run again.
const (
	StateIdle State = iota
	StateBound
	StateRunning
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

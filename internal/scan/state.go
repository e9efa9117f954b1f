package scan

import "fmt"

// State is a session's position in the scan life-cycle:
//
//	Idle -> Fetched -> Scanning -> Exhausted
//	Scanning -> Scanning (ReScan)
//	Scanning | Exhausted -> Ended
//
// A session left in Fetched has cached bytes but no reader, which happens
// when the header record could not be read.
type State uint8

const (
	StateIdle State = iota
	StateFetched
	StateScanning
	StateExhausted
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetched:
		return "fetched"
	case StateScanning:
		return "scanning"
	case StateExhausted:
		return "exhausted"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Outcome discriminates the three results of Next.
type Outcome uint8

const (
	// OutcomeRow carries a produced row.
	OutcomeRow Outcome = iota + 1
	// OutcomeSkip means the record had no identifier; call Next again.
	OutcomeSkip
	// OutcomeDone means the stream is exhausted.
	OutcomeDone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRow:
		return "row"
	case OutcomeSkip:
		return "skip"
	case OutcomeDone:
		return "done"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

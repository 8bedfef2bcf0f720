package pipeline

// State is the position of a run in the step sequence.
type State string

const (
	StateInit         State = "INIT"
	StateParsing      State = "PARSING"
	StateNormalizing  State = "NORMALIZING"
	StatePartitioning State = "PARTITIONING"
	StatePersisting   State = "PERSISTING"
	StateWritingFiles State = "WRITING_FILES"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

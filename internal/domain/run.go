package domain

// RunStatus is the persisted status of a run row.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusCompleted:
		return true
	default:
		return false
	}
}

func (s RunStatus) String() string {
	return string(s)
}

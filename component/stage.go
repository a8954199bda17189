package component

// Stage is the lifetime stage of a component. Stages only move forward.
type Stage int32

const (
	StageUninitialized Stage = iota
	StageCreated
	StageRunning
	StageStopping
	StageDestroyed
)

var stageNames = [...]string{
	StageUninitialized: "uninitialized",
	StageCreated:       "created",
	StageRunning:       "running",
	StageStopping:      "stopping",
	StageDestroyed:     "destroyed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// MarshalText renders the stage by name, e.g. in JSON snapshots.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

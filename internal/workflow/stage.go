package workflow

// Stage is one step of the upload → select → download → complete flow
type Stage string

const (
	StageUpload   Stage = "upload"
	StageSelect   Stage = "select"
	StageDownload Stage = "download"
	StageComplete Stage = "complete"
)

// Stages lists every stage in progress order
var Stages = []Stage{StageUpload, StageSelect, StageDownload, StageComplete}

// StepStatus is how a stage renders relative to the current one
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepPending   StepStatus = "pending"
)

func (s Stage) index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Status reports whether s is behind, at, or ahead of current
func (s Stage) Status(current Stage) StepStatus {
	switch idx, cur := s.index(), current.index(); {
	case idx < cur:
		return StepCompleted
	case idx == cur:
		return StepCurrent
	default:
		return StepPending
	}
}

package triage

import "fmt"

// Stage names recorded on failures.
const (
	StageIngestion = "ingestion"
	StageImaging   = "imaging"
	StageTherapy   = "therapy"
	StagePharmacy  = "pharmacy"
	StageDoctor    = "doctor"
)

// StageError tags a pipeline failure with the stage that produced it.
// Stages never panic across the coordinator boundary; every failure is
// carried as a value.
type StageError struct {
	Stage   string
	Kind    string
	Message string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// newStageError wraps a stage failure.
func newStageError(stage, kind string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: err.Error()}
}

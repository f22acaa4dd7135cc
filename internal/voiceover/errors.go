package voiceover

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by Service.Render wraps exactly one.
var (
	// ErrInput marks malformed subtitles, invalid timing, bad reference audio
	// or an out-of-range option.
	ErrInput = errors.New("voiceover: invalid input")
	// ErrModel marks model load or synthesis failures.
	ErrModel = errors.New("voiceover: synthesis model failure")
	// ErrResource marks temporary-storage and stretcher failures.
	ErrResource = errors.New("voiceover: resource failure")
)

// Stage names the step of a render that failed.
type Stage string

const (
	StageParse      Stage = "parse"
	StageValidate   Stage = "validate"
	StageNormalize  Stage = "normalize"
	StageModelLoad  Stage = "model_load"
	StageStage      Stage = "stage"
	StageSynthesize Stage = "synthesize"
	StageFit        Stage = "fit"
)

func (s Stage) class() error {
	switch s {
	case StageParse, StageValidate, StageNormalize:
		return ErrInput
	case StageModelLoad, StageSynthesize:
		return ErrModel
	default:
		return ErrResource
	}
}

// StageError reports where a render failed. Entry is the position of the
// subtitle entry involved, or -1.
type StageError struct {
	Stage Stage
	Entry int
	Err   error
}

func (e *StageError) Error() string {
	if e.Entry >= 0 {
		return fmt.Sprintf("voiceover: %s failed at entry %d: %v", e.Stage, e.Entry, e.Err)
	}
	return fmt.Sprintf("voiceover: %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the class sentinel for the failed stage.
func (e *StageError) Is(target error) bool {
	return target == e.Stage.class()
}

func stageErr(stage Stage, entry int, err error) error {
	return &StageError{Stage: stage, Entry: entry, Err: err}
}

// FailedStage returns the stage recorded in err, or "" when err carries none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

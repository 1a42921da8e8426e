package domain

import (
	"fmt"
	"strings"
)

// Stage is the outbound preparation stage of a preshipment.
type Stage string

const (
	StagePlanning    Stage = "Planning"
	StagePicking     Stage = "Picking"
	StagePacking     Stage = "Packing"
	StageLoading     Stage = "Loading"
	StageReadyToShip Stage = "Ready to Ship"
	StageStaged      Stage = "Staged"
	StageShipped     Stage = "Shipped"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StagePlanning,
	StagePicking,
	StagePacking,
	StageLoading,
	StageReadyToShip,
	StageStaged,
	StageShipped,
}

// AllowedTransitions maps each stage to its permitted successors. Every
// stage has an entry; Shipped is terminal.
var AllowedTransitions = map[Stage][]Stage{
	StagePlanning:    {StagePicking},
	StagePicking:     {StagePacking, StagePlanning},
	StagePacking:     {StageLoading, StagePicking},
	StageLoading:     {StageReadyToShip, StagePacking},
	StageReadyToShip: {StageStaged, StageLoading},
	StageStaged:      {StageShipped, StageReadyToShip},
	StageShipped:     {},
}

// signoffStages are the stages a driver may sign off from.
var signoffStages = map[Stage]struct{}{
	StageReadyToShip: {},
	StageStaged:      {},
}

func (s Stage) Valid() bool {
	_, ok := AllowedTransitions[s]
	return ok
}

func (s Stage) Terminal() bool {
	return s.Valid() && len(AllowedTransitions[s]) == 0
}

func (s Stage) CanSignOff() bool {
	_, ok := signoffStages[s]
	return ok
}

func (s Stage) String() string { return string(s) }

// ParseStage accepts the display label in any case, or its snake_case form.
func ParseStage(raw string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.ReplaceAll(normalized, "-", " ")
	for _, stage := range Stages {
		if strings.ToLower(string(stage)) == normalized {
			return stage, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, raw)
}

// ValidateTransition checks a stage change against AllowedTransitions.
// Moving to the current stage is a no-op and always allowed.
func ValidateTransition(from, to Stage) error {
	if !from.Valid() || !to.Valid() {
		return &TransitionError{From: from, To: to}
	}
	if from == to {
		return nil
	}
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// TransitionError names the rejected edge.
type TransitionError struct {
	From Stage
	To   Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

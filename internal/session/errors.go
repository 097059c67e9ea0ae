package session

import (
	"fmt"
)

// Step шаг сессии, на котором произошла ошибка.
type Step int

const (
	StepAcquire Step = iota
	StepNavigate
	StepInspect
	StepSettle
	StepScreenshot
	StepCleanup
)

func (s Step) String() string {
	switch s {
	case StepAcquire:
		return "acquire"
	case StepNavigate:
		return "navigate"
	case StepInspect:
		return "inspect"
	case StepSettle:
		return "settle"
	case StepScreenshot:
		return "screenshot"
	case StepCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// StepError ошибка шага сессии. Наружу из Run не пробрасывается,
// а попадает в Result.Err.
type StepError struct {
	Step    Step
	Profile string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Step, e.Profile, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (s *Session) stepErr(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Profile: s.profile.Name, Err: err}
}

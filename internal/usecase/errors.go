package usecase

import "fmt"

// Kind classifies where in the pipeline a run failed.
type Kind string

const (
	KindConfig   Kind = "config"
	KindFetch    Kind = "fetch"
	KindAnalysis Kind = "analysis"
	KindPersist  Kind = "persist"
)

// RunError is the single error value surfaced at the orchestrator boundary.
// A run resolves to either a full artifact bundle or one of these, never a
// partially populated mix.
type RunError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *RunError {
	return &RunError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, msg string) *RunError {
	return &RunError{Kind: kind, Msg: msg, Err: err}
}

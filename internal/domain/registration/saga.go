package registration

import (
	"context"

	"github.com/rs/zerolog"
)

// Step is one action in the registration sequence. Fatal steps abort the
// sequence and trigger compensation; non-fatal steps log their failure and
// let the sequence continue.
type Step struct {
	Name  string
	Fatal bool
	Run   func(ctx context.Context) error
	// Compensate undoes the step after it succeeded. Nil when the step
	// leaves nothing to undo.
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and records a compensation for every completed
// one. There is no datastore transaction behind the sequence; reverse-order
// compensation is the only rollback mechanism.
type Saga struct {
	log       zerolog.Logger
	completed []completedStep
}

type completedStep struct {
	name       string
	compensate func(ctx context.Context) error
}

func NewSaga(log zerolog.Logger) *Saga {
	return &Saga{log: log}
}

// Push records an externally completed action so it participates in
// compensation. Earlier pushes compensate later.
func (s *Saga) Push(name string, compensate func(ctx context.Context) error) {
	s.completed = append(s.completed, completedStep{name: name, compensate: compensate})
}

// Execute runs the steps. On a fatal failure it compensates everything
// completed so far and returns a StepError; non-fatal failures are logged and
// skipped.
func (s *Saga) Execute(ctx context.Context, steps []Step) error {
	for _, st := range steps {
		if err := st.Run(ctx); err != nil {
			if !st.Fatal {
				s.log.Warn().Err(err).Str("step", st.Name).Msg("non-fatal registration step failed")
				continue
			}
			s.log.Error().Err(err).Str("step", st.Name).Msg("registration step failed, compensating")
			s.Compensate(ctx)
			return &StepError{Step: st.Name, Err: err}
		}
		if st.Compensate != nil {
			s.completed = append(s.completed, completedStep{name: st.Name, compensate: st.Compensate})
		}
	}
	return nil
}

// Compensate undoes completed steps in reverse order. Each delete is
// independent: a failed compensation is logged and the rest still run, so an
// orphaned record is possible and visible in the logs.
func (s *Saga) Compensate(ctx context.Context) int {
	failures := 0
	for i := len(s.completed) - 1; i >= 0; i-- {
		st := s.completed[i]
		if err := st.compensate(ctx); err != nil {
			failures++
			s.log.Error().Err(err).Str("step", st.name).Msg("compensation failed, record may be orphaned")
		}
	}
	s.completed = nil
	return failures
}

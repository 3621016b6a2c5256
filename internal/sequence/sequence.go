// Package sequence implements the ordered-stage state machine that drives
// every multi-step flow in the gateway: KYC onboarding, registration, and
// the order review/confirm steps. A stage can only be entered once every
// earlier stage's validator has passed, while backward navigation is always
// free.
package sequence

import (
	"fmt"

	"investgate/pkg/platform/sentinel"
)

// FieldCause names the form field blocking an advance and the message to
// show next to it. Validators report causes instead of returning errors;
// an unsatisfied stage is a normal state, not a failure.
type FieldCause struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of running a stage validator.
type Result struct {
	Causes []FieldCause
}

// OK reports whether the stage is satisfied.
func (r Result) OK() bool {
	return len(r.Causes) == 0
}

// Blocked builds a failing Result from one cause.
func Blocked(field, message string) Result {
	return Result{Causes: []FieldCause{{Field: field, Message: message}}}
}

// Satisfied is the passing Result.
func Satisfied() Result {
	return Result{}
}

// Validator is a pure predicate over the flow's form state. It must not
// perform I/O and must never panic on partial input.
type Validator[S any] func(form S) Result

// Stage is one ordered step. Completion is derived from the cursor
// (index < current), never stored, so it cannot drift.
type Stage[S any] struct {
	Index    int
	Label    string
	Terminal bool
	Validate Validator[S]
}

// Sequence owns the cursor over an ordered stage list. The cursor is the
// only mutable state; invariant 0 <= current <= len(stages).
type Sequence[S any] struct {
	stages     []Stage[S]
	current    int
	onComplete func()
	completed  bool
}

// Option configures a Sequence at construction.
type Option[S any] func(*Sequence[S])

// WithCompletion registers the completion signal fired once when the cursor
// first moves past the last stage.
func WithCompletion[S any](fn func()) Option[S] {
	return func(s *Sequence[S]) { s.onComplete = fn }
}

// StartAt resumes the cursor from persisted progress. The value is clamped
// during New against the stage count.
func StartAt[S any](index int) Option[S] {
	return func(s *Sequence[S]) { s.current = index }
}

// New builds a sequence over the given stages. Stage indexes must be
// contiguous from zero; anything else is a programming error surfaced at
// construction.
func New[S any](stages []Stage[S], opts ...Option[S]) (*Sequence[S], error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("sequence requires at least one stage")
	}
	for i, st := range stages {
		if st.Index != i {
			return nil, fmt.Errorf("stage %q has index %d, want %d", st.Label, st.Index, i)
		}
		if st.Validate == nil {
			return nil, fmt.Errorf("stage %q has no validator", st.Label)
		}
	}
	s := &Sequence[S]{stages: stages}
	for _, opt := range opts {
		opt(s)
	}
	if s.current < 0 {
		s.current = 0
	}
	if s.current > len(stages) {
		s.current = len(stages)
	}
	if s.current == len(stages) {
		s.completed = true
	}
	return s, nil
}

// Current returns the cursor position.
func (s *Sequence[S]) Current() int {
	return s.current
}

// Len returns the number of stages.
func (s *Sequence[S]) Len() int {
	return len(s.stages)
}

// Stage returns the stage at the cursor. Calling it on a complete sequence
// returns the terminal stage.
func (s *Sequence[S]) Stage() Stage[S] {
	if s.current >= len(s.stages) {
		return s.stages[len(s.stages)-1]
	}
	return s.stages[s.current]
}

// Completed reports whether the stage at index has been passed.
func (s *Sequence[S]) Completed(index int) bool {
	return index < s.current
}

// Complete reports whether the cursor has moved past the last stage.
func (s *Sequence[S]) Complete() bool {
	return s.current == len(s.stages)
}

// CanAdvance evaluates the current stage's validator against the form.
// Pure: no state changes, no side effects.
func (s *Sequence[S]) CanAdvance(form S) bool {
	if s.Complete() {
		return false
	}
	return s.stages[s.current].Validate(form).OK()
}

// Causes returns the field-level reasons the current stage is unsatisfied,
// empty when the stage would advance.
func (s *Sequence[S]) Causes(form S) []FieldCause {
	if s.Complete() {
		return nil
	}
	return s.stages[s.current].Validate(form).Causes
}

// Advance moves the cursor forward by exactly one stage when the current
// validator passes; otherwise it is a silent no-op. Returns whether the
// cursor moved. The completion signal fires once, on the transition that
// moves the cursor past the final stage.
func (s *Sequence[S]) Advance(form S) bool {
	if !s.CanAdvance(form) {
		return false
	}
	s.current++
	if s.current == len(s.stages) && !s.completed {
		s.completed = true
		if s.onComplete != nil {
			s.onComplete()
		}
	}
	return true
}

// Retreat moves the cursor back one stage, flooring at zero. It never
// re-runs validators: visiting a prior stage for correction must always be
// possible.
func (s *Sequence[S]) Retreat() {
	if s.current > 0 {
		s.current--
	}
}

// JumpTo moves the cursor to a previously reached stage. Jumping ahead of
// the cursor is rejected; skipping stages would bypass their validators.
func (s *Sequence[S]) JumpTo(index int) error {
	if index < 0 || index > s.current {
		return sentinel.ErrInvalidState
	}
	s.current = index
	return nil
}

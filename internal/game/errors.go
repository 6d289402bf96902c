package game

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEffect marks an effect key outside the engine's vocabulary.
	ErrUnknownEffect = errors.New("unknown effect key")
	// ErrBadEffect marks an effect whose value has the wrong shape.
	ErrBadEffect = errors.New("bad effect value")
	// ErrBadCondition marks a card condition that cannot be parsed.
	ErrBadCondition = errors.New("bad condition")
	// ErrBadRequirement marks a goal requirement that cannot be compared.
	ErrBadRequirement = errors.New("bad goal requirement")
	// ErrInvariant marks a broken engine invariant.
	ErrInvariant = errors.New("invariant violated")
)

// ContentError locates a problem in card, goal or profile data.
type ContentError struct {
	Source  string // card or goal name
	Problem string
	Err     error
}

func (e *ContentError) Error() string {
	if e.Source == "" {
		return e.Problem
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Problem)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// InvariantError reports engine state that should be impossible.
type InvariantError struct {
	Turn   int
	Player int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("turn %d, player %d: %s: %s", e.Turn, e.Player, ErrInvariant, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

package decay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/transmute/internal/isotope"
)

var (
	// ErrNegativeHalfLife indicates a half-life below zero or NaN.
	ErrNegativeHalfLife = errors.New("decay: negative half-life")

	// ErrNegativeBranching indicates a decay channel with a negative, NaN or
	// infinite branching ratio.
	ErrNegativeBranching = errors.New("decay: negative branching ratio")

	// ErrDuplicateRecord indicates two records for the same isotope.
	ErrDuplicateRecord = errors.New("decay: duplicate record")

	// ErrDegenerateChain indicates two members of one decay path with equal
	// decay constants, where the closed-form chain solution divides by zero.
	ErrDegenerateChain = errors.New("decay: repeated decay constant in chain")

	// ErrChainTooDeep indicates a decay path longer than MaxChainDepth,
	// which in practice means cyclic decay data.
	ErrChainTooDeep = errors.New("decay: chain exceeds maximum depth")

	// ErrNegativeTime indicates a negative, NaN or infinite decay time.
	ErrNegativeTime = errors.New("decay: negative or non-finite time")

	// ErrUnknownMode indicates an unrecognised decay-type name or code.
	ErrUnknownMode = errors.New("decay: unknown decay mode")
)

// RecordError reports a data-integrity fault in one record.
type RecordError struct {
	ID       isotope.ID
	Daughter isotope.ID
	Wrapped  error
}

func (e *RecordError) Error() string {
	if e.Daughter != 0 {
		return fmt.Sprintf("%v (%s -> %s)", e.Wrapped, e.ID, e.Daughter)
	}
	return fmt.Sprintf("%v (%s)", e.Wrapped, e.ID)
}

func (e *RecordError) Unwrap() error { return e.Wrapped }

// ChainError reports the decay path on which a chain fault was found.
type ChainError struct {
	Path    []isotope.ID
	Wrapped error
}

func (e *ChainError) Error() string {
	names := make([]string, len(e.Path))
	for i, id := range e.Path {
		names[i] = id.String()
	}
	return fmt.Sprintf("%v: %s", e.Wrapped, strings.Join(names, " -> "))
}

func (e *ChainError) Unwrap() error { return e.Wrapped }

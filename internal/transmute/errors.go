package transmute

import (
	"errors"

	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/fission"
)

var (
	// ErrDimensionMismatch indicates a matrix not sized to the universe.
	ErrDimensionMismatch = errors.New("transmute: matrix does not match universe size")

	// ErrNegativeRate indicates a negative or NaN reaction or fission rate.
	ErrNegativeRate = errors.New("transmute: negative reaction rate")

	// ErrUnknownReaction indicates a reaction kind with no product offset.
	ErrUnknownReaction = errors.New("transmute: unknown reaction kind")

	// ErrNegativeBranching is the decay package's sentinel, so callers can
	// match either.
	ErrNegativeBranching = decay.ErrNegativeBranching

	// ErrNegativeYield is the fission package's sentinel.
	ErrNegativeYield = fission.ErrNegativeYield
)

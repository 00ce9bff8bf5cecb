package sparse

import "errors"

// Every message is prefixed with "sparse: " and callers match with errors.Is.
var (
	// ErrBadShape is returned when a requested shape is not positive.
	ErrBadShape = errors.New("sparse: invalid shape")

	// ErrOutOfRange indicates a row or column index outside the matrix.
	ErrOutOfRange = errors.New("sparse: index out of range")

	// ErrNaNInf indicates a NaN or ±Inf value offered to Add.
	ErrNaNInf = errors.New("sparse: NaN or Inf encountered")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("sparse: matrix is not square")

	// ErrSingular is returned when elimination meets a zero pivot. There is
	// no pivoting.
	ErrSingular = errors.New("sparse: singular matrix")

	// ErrWorkspace is returned when the LU factors need more entries than
	// the configured fill limit.
	ErrWorkspace = errors.New("sparse: factorization exceeds workspace")
)

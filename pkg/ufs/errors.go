package ufs

import "fmt"

// The UFS error taxonomy. Every backend, combinator, and adapter reports
// failures using one of these seven sentinels, carried with the operation
// and the offending path in a *PathError (built by NotFound, AlreadyExists
// and the other constructors below) whose Unwrap returns the sentinel, so
// that errors.Is and errors.As keep working across combinator boundaries (an Overlay wrapping
// a DirCache wrapping a Prefix around a Local store still reports
// errors.Is(err, ufs.ErrNotFound) correctly all the way up).
var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrAlreadyExists   = fmt.Errorf("already exists")
	ErrNotADirectory   = fmt.Errorf("not a directory")
	ErrIsADirectory    = fmt.Errorf("is a directory")
	ErrNotEmpty        = fmt.Errorf("directory not empty")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrUnsupported     = fmt.Errorf("unsupported operation")
)

// PathError pairs a taxonomy sentinel with the path it occurred on and
// (for Io) an underlying cause. It is the concrete error type returned by
// every Store implementation in this module.
type PathError struct {
	Op   string
	Path string
	Err  error // one of the Err* sentinels above, or an Io-wrapped cause
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// NotFound builds a PathError wrapping ErrNotFound.
func NotFound(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrNotFound}
}

// AlreadyExists builds a PathError wrapping ErrAlreadyExists.
func AlreadyExists(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrAlreadyExists}
}

// NotADirectory builds a PathError wrapping ErrNotADirectory.
func NotADirectory(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrNotADirectory}
}

// IsADirectory builds a PathError wrapping ErrIsADirectory.
func IsADirectory(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrIsADirectory}
}

// NotEmpty builds a PathError wrapping ErrNotEmpty.
func NotEmpty(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrNotEmpty}
}

// PermissionDenied builds a PathError wrapping ErrPermissionDenied.
func PermissionDenied(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrPermissionDenied}
}

// Unsupported builds a PathError wrapping ErrUnsupported.
func Unsupported(op string, path fmt.Stringer) error {
	return &PathError{Op: op, Path: path.String(), Err: ErrUnsupported}
}

// Io wraps an arbitrary lower-level cause (network failure, disk I/O
// error, decode error, ...) that does not fit one of the seven named taxonomy
// cases but must still cross combinator boundaries as a single error type.
func Io(op string, path fmt.Stringer, cause error) error {
	return &PathError{Op: op, Path: path.String(), Err: cause}
}

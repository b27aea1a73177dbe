package errs

import "fmt"

// StorageError describes a failed store operation on a key.
// It matches ErrStorage with errors.Is.
type StorageError struct {
	Op  string // "read", "write", "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage as a match so callers need not know the concrete type.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

package errs

import (
	"errors"
	"io"
	"testing"
)

func TestStorageError_IsAndUnwrap(t *testing.T) {
	t.Parallel()

	err := error(&StorageError{Op: "read", Key: "stash_users", Err: io.ErrUnexpectedEOF})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("want errors.Is(err, ErrStorage)")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want wrapped cause to be reachable")
	}
	if errors.Is(err, ErrLoad) {
		t.Fatalf("unexpected match with ErrLoad")
	}
	want := "storage error: read stash_users: unexpected EOF"
	if err.Error() != want {
		t.Fatalf("Error()=%q, want %q", err.Error(), want)
	}
}

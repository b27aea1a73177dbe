// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAccount indicates a credential record already exists for the email.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrStorage indicates the persistent store failed (corruption, quota, encoding).
	ErrStorage = errors.New("storage failure")

	// ErrAnnotationUnavailable indicates the annotation service errored, timed out or returned garbage.
	ErrAnnotationUnavailable = errors.New("annotation unavailable")

	// ErrMalformedAnnotation indicates the annotation payload is missing required fields.
	ErrMalformedAnnotation = errors.New("malformed annotation")

	// ErrDuplicateLink indicates the url is already stashed in the collection.
	ErrDuplicateLink = errors.New("link already stashed")

	// ErrLoad indicates a collection could not be loaded from the store.
	ErrLoad = errors.New("load failed")

	// ErrInvalidInput indicates a validation failure (empty email, bad url).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSignedIn indicates an operation that needs an active session.
	ErrNotSignedIn = errors.New("not signed in")
)

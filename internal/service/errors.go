package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service operation either matches
// exactly one of these with errors.Is or is an internal failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflictRetry   = errors.New("conflict, retry")
	ErrMisconfigured   = errors.New("auth config invalid")
)

var (
	ErrInvalidCredential  = fmt.Errorf("%w: invalid credential", ErrUnauthenticated)
	ErrTokenReuseDetected = fmt.Errorf("%w: refresh token reuse detected", ErrUnauthenticated)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters and contain a letter and a digit", ErrInvalidArgument)
	ErrDuplicate          = fmt.Errorf("%w: already exists", ErrInvalidArgument)
	ErrSelfSubscription   = fmt.Errorf("%w: cannot subscribe to own channel", ErrInvalidArgument)
	ErrInvalidReference   = fmt.Errorf("%w: malformed id", ErrInvalidArgument)
)

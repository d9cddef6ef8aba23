package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated occurs when no valid credential accompanies a request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrPrincipalNotFound occurs when a verified token points at a deleted user.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrTokenExpired occurs when a bearer token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid occurs when a bearer token fails signature or claim checks.
	ErrTokenInvalid = errors.New("token invalid")
)

package provider

import (
	"errors"
	"fmt"
)

// ErrTimedOut is returned when a poll schedule is exhausted without the
// remote task reaching a terminal state. It is distinct from a failure:
// the remote outcome is unknown, not negative.
var ErrTimedOut = errors.New("polling deadline exceeded")

// ErrUnknownModel is returned when a model identifier has no registry entry.
var ErrUnknownModel = errors.New("unknown model identifier")

// ValidationError reports a caller-supplied option outside its declared
// enumeration or numeric range. It is raised before any network call and is
// never retried.
type ValidationError struct {
	Option  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Message)
}

// AuthError reports a missing or provider-rejected credential. Requests to
// the provider are fatal until configuration is fixed.
type AuthError struct {
	Provider ID
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: auth: %s", e.Provider, e.Message)
}

// ServiceError is a structured failure returned by a remote provider. It is
// surfaced verbatim to the caller and not automatically retried, since a
// provider rejection usually indicates bad parameters rather than transient
// unavailability.
type ServiceError struct {
	Provider   ID
	HTTPStatus int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: service error (http %d, code %s): %s", e.Provider, e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: service error (http %d): %s", e.Provider, e.HTTPStatus, e.Message)
}

// TransportError wraps a connection-level failure (dropped connection, DNS,
// read error). The executor may retry one poll within the current wait
// interval when it sees one; the overall deadline is never reset.
type TransportError struct {
	Provider ID
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transport-level failure worth one
// in-interval retry.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DownloadError reports a failed artifact fetch or local materialization
// after the remote task succeeded. Callers can retry materialization without
// resubmitting the job.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

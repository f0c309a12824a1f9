package inlabs

import "errors"

// Sentinel errors for the portal client. Callers classify failures with
// errors.Is; everything else the client returns is wrapped around one of
// these or is a plain formatting/parse error.
var (
	// ErrAuthentication means the portal rejected the configured credentials.
	// Fatal to a run.
	ErrAuthentication = errors.New("inlabs: authentication failed")

	// ErrTransient marks timeouts and connection failures. Retried per the
	// client's backoff policy.
	ErrTransient = errors.New("inlabs: transient network error")

	// ErrSessionExpired means the portal answered with its login page instead
	// of content. The client re-authenticates once and retries.
	ErrSessionExpired = errors.New("inlabs: session expired")

	// ErrUnexpectedContent means the portal returned HTML where a binary
	// artifact was expected. Not retried.
	ErrUnexpectedContent = errors.New("inlabs: unexpected content")
)

package portal

import "errors"

// Portal automation errors. They abort the run and are not retried.
var (
	// ErrLogin is returned when submitting the login form does not lead past
	// the login page.
	ErrLogin = errors.New("portal login failed")

	// ErrNavigation is returned when an expected frame, text anchor or control
	// never appears within its bounded wait.
	ErrNavigation = errors.New("portal navigation failed")

	// ErrCapture is returned when clicking a payslip link produced no link.
	ErrCapture = errors.New("payslip link capture failed")

	// ErrFetch is returned when the in-page download of a payslip fails.
	ErrFetch = errors.New("payslip fetch failed")
)

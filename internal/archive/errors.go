package archive

import "errors"

// Archive errors.
var (
	// ErrAuthorize is returned when the archive credentials are rejected.
	ErrAuthorize = errors.New("archive authorization failed")

	// ErrList is returned when the archive folder cannot be listed.
	ErrList = errors.New("archive listing failed")

	// ErrUpload is returned, per document, when an upload fails. The local
	// artifact of that document is kept.
	ErrUpload = errors.New("archive upload failed")
)

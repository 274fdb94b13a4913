package knowledge

import "errors"

var (
	// ErrSourceUnavailable is returned when the knowledge document cannot be found or read.
	ErrSourceUnavailable = errors.New("knowledge source unavailable")
	// ErrEmptySource is returned when the document is blank.
	ErrEmptySource = errors.New("knowledge source is empty")
	// ErrSchemaViolation is returned when required sections are missing after extraction.
	ErrSchemaViolation = errors.New("knowledge schema violation")
)

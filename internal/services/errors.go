package services

import "errors"

// Dashboard service errors
var (
	// Source errors
	ErrSourceNotConfigured = errors.New("no source file configured")

	// View errors
	ErrNoMonthData  = errors.New("no valid month data found in the source file")
	ErrUnknownView  = errors.New("unknown view")
	ErrInvalidInput = errors.New("invalid input")

	// Export errors
	ErrExportFailed = errors.New("export failed")
)

// Package http implements the HTTP handlers of the sales dashboard.
//
// Handlers stay thin: they parse and validate query parameters, call the
// dashboard service and render the result. Successful JSON responses share
// one envelope:
//
//	{"status": "success", "data": {...}, "advisories": [...], "message": "..."}
//
// The message is only present when the view is empty. Errors are RFC 7807
// problem documents produced by errors.ErrorHandler; service sentinels are
// mapped with errors.Is before falling back to the AppError mapping:
//
//	services.ErrNoMonthData         404 NO_MONTH_DATA
//	services.ErrSourceNotConfigured 503 SERVICE_UNAVAILABLE
//	services.ErrUnknownView         400 INVALID_PARAMETER
//	services.ErrInvalidInput        400 INVALID_PARAMETER
//
// Exports (export.xlsx, export.csv) are buffered so the attachment file name
// can carry the resolved month.
package http

// Package handlers defines the error codes returned by the check API.
//
// Every error response carries one of these codes next to the HTTP status so
// clients can branch on the code rather than on the message text:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "check not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "unavailable"

	// Command processing:
	ErrCodeCommandFailed = "command_failed"
	ErrCodeUnknownAction = "unknown_action"
)

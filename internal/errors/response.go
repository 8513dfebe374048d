package errors

import (
	"github.com/cockroachdb/errors"
)

// ErrorDetail carries the client-safe portion of an error.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the wire representation of an error, used by API layers
// and webhook payloads.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into its client-safe representation.
// For InternalError the hint (not the internal message) is exposed.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	resp := &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: err.Error(),
		},
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.Hint != "" {
			resp.Error.Message = ie.Hint
		}
		resp.Error.Details = ie.ReportableDetails
	}

	return resp
}

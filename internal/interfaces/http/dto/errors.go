package dto

import (
	"errors"
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Codes of failures raised by the transport itself. Domain failures carry
// their own code (ALREADY_SETTLED, DOCUMENT_NOT_FOUND).
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeNotFound    = "ERR_NOT_FOUND"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

const internalMessage = "An unexpected error occurred"

// StatusOf maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusOf(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError renders err as a status and failure envelope. Internal errors
// and errors outside the domain taxonomy answer a generic 500 so that
// driver messages never reach the client.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Kind == shared.KindInternal {
		return http.StatusInternalServerError, Failure(ErrCodeInternal, internalMessage, requestID)
	}
	return StatusOf(de.Kind), Failure(de.Code, de.Message, requestID)
}

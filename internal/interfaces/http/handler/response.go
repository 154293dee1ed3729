package handler

import "github.com/erp/backoffice/internal/interfaces/http/dto"

// APIResponse is the typed form of dto.Response. Handlers write dto.Response;
// this type exists for the OpenAPI annotations and for decoding in clients
// and tests.
// @Description Envelope of every successful finance API response
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	// Meta is present on paginated lists only
	Meta *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of a failed request. The error code is
// stable (e.g. DOCUMENT_NOT_FOUND, INVALID_STATE_TRANSITION); the message
// is for humans.
// @Description Envelope of every failed finance API response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}

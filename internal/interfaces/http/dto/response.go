// Package dto holds the JSON envelope of the finance API and the mapping of
// domain errors onto it.
package dto

import "github.com/erp/backoffice/internal/domain/shared"

// Response is the envelope of every API answer. Exactly one of Data and
// Error is set; Meta accompanies paged lists.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func Success(data any) Response {
	return Response{Success: true, Data: data}
}

// Paged wraps one page of a list. TotalPages is zero when pageSize is.
func Paged(data any, total int64, page, pageSize int) Response {
	resp := Success(data)
	resp.Meta = &Meta{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: shared.PageCount(total, pageSize),
	}
	return resp
}

func Failure(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// InvalidFields reports request fields that failed validation.
func InvalidFields(requestID string, details []ValidationDetail) Response {
	resp := Failure(ErrCodeValidation, "Request validation failed", requestID)
	resp.Error.Details = details
	return resp
}

package handler

import (
	"fmt"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles payable and receivable document endpoints
type DocumentHandler struct {
	BaseHandler
	documents financeapp.DocumentOperations
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents financeapp.DocumentOperations) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// ===================== Request DTOs =====================

// CreateDocumentBody is the request body for creating a standalone document.
// Amounts are integer cents and dates are YYYY-MM-DD.
type CreateDocumentBody struct {
	Direction       string            `json:"direction" binding:"required,direction" example:"PAYABLE"`
	CounterpartyID  uuid.UUID         `json:"counterparty_id" binding:"required"`
	DocumentNumber  string            `json:"document_number" binding:"required,max=50" example:"NF-1001"`
	Kind            string            `json:"kind" binding:"required,doc_kind" example:"INVOICE"`
	IssueDate       valueobject.Date  `json:"issue_date" swaggertype:"string" example:"2024-03-01"`
	DueDate         valueobject.Date  `json:"due_date" swaggertype:"string" example:"2024-03-31"`
	OriginalAmount  valueobject.Money `json:"original_amount" swaggertype:"integer" example:"150000"`
	DiscountAmount  valueobject.Money `json:"discount_amount" swaggertype:"integer" example:"0"`
	InterestAmount  valueobject.Money `json:"interest_amount" swaggertype:"integer" example:"0"`
	PenaltyAmount   valueobject.Money `json:"penalty_amount" swaggertype:"integer" example:"0"`
	PaymentMethodID *uuid.UUID        `json:"payment_method_id"`
	Notes           string            `json:"notes" binding:"max=2000"`
}

// SettleDocumentBody is the request body for a full settlement. Omitted
// adjustments keep the amounts stored on the document.
type SettleDocumentBody struct {
	PaidAmount      valueobject.Money  `json:"paid_amount" swaggertype:"integer" example:"150000"`
	DiscountAmount  *valueobject.Money `json:"discount_amount" swaggertype:"integer"`
	InterestAmount  *valueobject.Money `json:"interest_amount" swaggertype:"integer"`
	PenaltyAmount   *valueobject.Money `json:"penalty_amount" swaggertype:"integer"`
	SettlementDate  valueobject.Date   `json:"settlement_date" swaggertype:"string" example:"2024-03-30"`
	PaymentMethodID *uuid.UUID         `json:"payment_method_id"`
}

// UpdateDocumentBody is the request body for editing a document; omitted
// fields are left unchanged
type UpdateDocumentBody struct {
	DocumentNumber  *string            `json:"document_number" binding:"omitempty,max=50"`
	Kind            *string            `json:"kind" binding:"omitempty,doc_kind"`
	IssueDate       *valueobject.Date  `json:"issue_date" swaggertype:"string"`
	DueDate         *valueobject.Date  `json:"due_date" swaggertype:"string"`
	OriginalAmount  *valueobject.Money `json:"original_amount" swaggertype:"integer"`
	DiscountAmount  *valueobject.Money `json:"discount_amount" swaggertype:"integer"`
	InterestAmount  *valueobject.Money `json:"interest_amount" swaggertype:"integer"`
	PenaltyAmount   *valueobject.Money `json:"penalty_amount" swaggertype:"integer"`
	PaidAmount      *valueobject.Money `json:"paid_amount" swaggertype:"integer"`
	PaymentMethodID *uuid.UUID         `json:"payment_method_id"`
	Notes           *string            `json:"notes" binding:"omitempty,max=2000"`
}

// ListDocumentsQuery holds the list query parameters
type ListDocumentsQuery struct {
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string `form:"order_by" binding:"max=50"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search         string `form:"search" binding:"max=100"`
	Direction      string `form:"direction" binding:"omitempty,direction"`
	Status         string `form:"status"`
	CounterpartyID string `form:"counterparty_id" binding:"omitempty,uuid"`
	TransactionID  string `form:"transaction_id" binding:"omitempty,uuid"`
	DueFrom        string `form:"due_from" binding:"omitempty,datetime=2006-01-02"`
	DueTo          string `form:"due_to" binding:"omitempty,datetime=2006-01-02"`
	IncludeRemoved bool   `form:"include_removed"`
}

func (q ListDocumentsQuery) toFilter() (financeapp.ListDocumentsFilter, error) {
	filter := financeapp.ListDocumentsFilter{
		Search:         q.Search,
		Direction:      q.Direction,
		Status:         q.Status,
		IncludeRemoved: q.IncludeRemoved,
		Page:           q.Page,
		PageSize:       q.PageSize,
		OrderBy:        q.OrderBy,
		OrderDir:       q.OrderDir,
	}
	var err error
	if filter.CounterpartyID, err = optionalUUID(q.CounterpartyID, "counterparty_id"); err != nil {
		return filter, err
	}
	if filter.TransactionID, err = optionalUUID(q.TransactionID, "transaction_id"); err != nil {
		return filter, err
	}
	if filter.DueFrom, err = optionalDate(q.DueFrom, "due_from"); err != nil {
		return filter, err
	}
	if filter.DueTo, err = optionalDate(q.DueTo, "due_to"); err != nil {
		return filter, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return filter, nil
}

func optionalUUID(value, param string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_QUERY", fmt.Sprintf("%s must be a UUID", param))
	}
	return &id, nil
}

func optionalDate(value, param string) (*valueobject.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := valueobject.ParseDate(value)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_QUERY", fmt.Sprintf("%s must be a date in YYYY-MM-DD format", param))
	}
	return d.Ptr(), nil
}

// ===================== Handlers =====================

// Create godoc
// @Summary      Create a document
// @Description  Create a standalone payable or receivable document
// @Tags         finance-documents
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        X-Actor-ID header string false "Acting user ID"
// @Param        request body CreateDocumentBody true "Document"
// @Success      201 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var body CreateDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), tenantID(c), financeapp.CreateDocumentRequest{
		Direction:       body.Direction,
		CounterpartyID:  body.CounterpartyID,
		DocumentNumber:  body.DocumentNumber,
		Kind:            body.Kind,
		IssueDate:       body.IssueDate,
		DueDate:         body.DueDate,
		OriginalAmount:  body.OriginalAmount,
		DiscountAmount:  body.DiscountAmount,
		InterestAmount:  body.InterestAmount,
		PenaltyAmount:   body.PenaltyAmount,
		PaymentMethodID: body.PaymentMethodID,
		Notes:           body.Notes,
		CreatedBy:       actorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Get godoc
// @Summary      Get a document
// @Tags         finance-documents
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /finance/documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List godoc
// @Summary      List documents
// @Description  List documents with filtering and pagination. Removed documents are hidden unless include_removed is set.
// @Tags         finance-documents
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        direction query string false "PAYABLE or RECEIVABLE"
// @Param        status query string false "OPEN, OVERDUE, SETTLED or CANCELLED"
// @Param        counterparty_id query string false "Counterparty ID" format(uuid)
// @Param        transaction_id query string false "Originating transaction ID" format(uuid)
// @Param        due_from query string false "Due date lower bound (YYYY-MM-DD)"
// @Param        due_to query string false "Due date upper bound (YYYY-MM-DD)"
// @Param        search query string false "Matches document number and counterparty name"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var query ListDocumentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	filter, err := query.toFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	docs, total, err := h.documents.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// ListOverdue godoc
// @Summary      List overdue documents
// @Tags         finance-documents
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        direction query string false "PAYABLE or RECEIVABLE"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/documents/overdue [get]
func (h *DocumentHandler) ListOverdue(c *gin.Context) {
	var query ListDocumentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	filter, err := query.toFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	docs, total, err := h.documents.ListOverdue(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// Summary godoc
// @Summary      Summarize documents
// @Description  Counts and outstanding balances per status, optionally for one direction
// @Tags         finance-documents
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        direction query string false "PAYABLE or RECEIVABLE"
// @Success      200 {object} APIResponse[financeapp.SummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/documents/summary [get]
func (h *DocumentHandler) Summary(c *gin.Context) {
	summary, err := h.documents.Summary(c.Request.Context(), tenantID(c), c.Query("direction"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Settle godoc
// @Summary      Settle a document
// @Description  Settle the full balance; the paid amount must match the balance within one cent
// @Tags         finance-documents
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        X-Actor-ID header string false "Acting user ID"
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body SettleDocumentBody true "Settlement"
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/documents/{id}/settle [post]
func (h *DocumentHandler) Settle(c *gin.Context) {
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}
	var body SettleDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	doc, err := h.documents.Settle(c.Request.Context(), tenantID(c), id, financeapp.SettleDocumentRequest{
		PaidAmount:      body.PaidAmount,
		DiscountAmount:  body.DiscountAmount,
		InterestAmount:  body.InterestAmount,
		PenaltyAmount:   body.PenaltyAmount,
		SettlementDate:  body.SettlementDate,
		PaymentMethodID: body.PaymentMethodID,
		SettledBy:       actorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Cancel godoc
// @Summary      Cancel a document
// @Description  Cancel a standalone document. Installment documents are cancelled through their transaction.
// @Tags         finance-documents
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}
	doc, err := h.documents.Cancel(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Update godoc
// @Summary      Update a document
// @Tags         finance-documents
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body UpdateDocumentBody true "Changed fields"
// @Success      200 {object} APIResponse[financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}
	var body UpdateDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	doc, err := h.documents.Update(c.Request.Context(), tenantID(c), id, financeapp.UpdateDocumentRequest{
		DocumentNumber:  body.DocumentNumber,
		Kind:            body.Kind,
		IssueDate:       body.IssueDate,
		DueDate:         body.DueDate,
		OriginalAmount:  body.OriginalAmount,
		DiscountAmount:  body.DiscountAmount,
		InterestAmount:  body.InterestAmount,
		PenaltyAmount:   body.PenaltyAmount,
		PaidAmount:      body.PaidAmount,
		PaymentMethodID: body.PaymentMethodID,
		Notes:           body.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Remove godoc
// @Summary      Remove a document
// @Description  Soft-delete a document; it stays readable with include_removed
// @Tags         finance-documents
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/documents/{id} [delete]
func (h *DocumentHandler) Remove(c *gin.Context) {
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}
	if err := h.documents.Remove(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

package handler

import (
	"context"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentOperations generates installment schedules and manages the
// documents derived from a transaction
type InstallmentOperations interface {
	Preview(ctx context.Context, tenantID uuid.UUID, req financeapp.PreviewInstallmentsRequest) (*financeapp.ScheduleResponse, error)
	Confirm(ctx context.Context, tenantID uuid.UUID, req financeapp.ConfirmInstallmentsRequest) ([]financeapp.DocumentResponse, error)
	CancelDerivedByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]financeapp.DocumentResponse, error)
}

// InstallmentHandler handles installment schedule endpoints
type InstallmentHandler struct {
	BaseHandler
	installments InstallmentOperations
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(installments InstallmentOperations) *InstallmentHandler {
	return &InstallmentHandler{installments: installments}
}

// InstallmentSpecBody is one entry of a payment-term template
type InstallmentSpecBody struct {
	SequenceNumber    int             `json:"sequence_number" binding:"min=1"`
	DaysToPayment     int             `json:"days_to_payment" binding:"min=0"`
	PercentageOfTotal decimal.Decimal `json:"percentage_of_total" swaggertype:"string" example:"33.33"`
	PaymentMethodID   uuid.UUID       `json:"payment_method_id" binding:"required"`
}

// PreviewInstallmentsBody is the request body for a schedule preview
type PreviewInstallmentsBody struct {
	BaseDate     valueobject.Date      `json:"base_date" swaggertype:"string" example:"2024-01-31"`
	TotalAmount  valueobject.Money     `json:"total_amount" swaggertype:"integer" example:"100000"`
	Installments []InstallmentSpecBody `json:"installments" binding:"required,min=1,dive"`
}

// ConfirmedInstallmentBody is one reviewed installment to persist
type ConfirmedInstallmentBody struct {
	SequenceNumber  int               `json:"sequence_number" binding:"min=1"`
	DueDate         valueobject.Date  `json:"due_date" swaggertype:"string"`
	Amount          valueobject.Money `json:"amount" swaggertype:"integer"`
	PaymentMethodID *uuid.UUID        `json:"payment_method_id"`
}

// ConfirmInstallmentsBody is the request body turning a schedule into documents
type ConfirmInstallmentsBody struct {
	TransactionID  uuid.UUID                  `json:"transaction_id" binding:"required"`
	Direction      string                     `json:"direction" binding:"required,direction"`
	CounterpartyID uuid.UUID                  `json:"counterparty_id" binding:"required"`
	Model          string                     `json:"model" binding:"max=20" example:"55"`
	Series         string                     `json:"series" binding:"max=20" example:"1"`
	Number         string                     `json:"number" binding:"required,max=40" example:"12345"`
	Kind           string                     `json:"kind" binding:"required,doc_kind"`
	IssueDate      valueobject.Date           `json:"issue_date" swaggertype:"string"`
	Installments   []ConfirmedInstallmentBody `json:"installments" binding:"required,min=1,dive"`
}

// Preview godoc
// @Summary      Preview an installment schedule
// @Description  Split a total across a payment-term template without persisting anything. Amounts are floored; the last installment absorbs the remainder.
// @Tags         finance-installments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        request body PreviewInstallmentsBody true "Template and total"
// @Success      200 {object} APIResponse[financeapp.ScheduleResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/installments/preview [post]
func (h *InstallmentHandler) Preview(c *gin.Context) {
	var body PreviewInstallmentsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := financeapp.PreviewInstallmentsRequest{
		BaseDate:     body.BaseDate,
		TotalAmount:  body.TotalAmount,
		Installments: make([]financeapp.InstallmentSpecInput, len(body.Installments)),
	}
	for i, in := range body.Installments {
		req.Installments[i] = financeapp.InstallmentSpecInput{
			SequenceNumber:    in.SequenceNumber,
			DaysToPayment:     in.DaysToPayment,
			PercentageOfTotal: in.PercentageOfTotal,
			PaymentMethodID:   in.PaymentMethodID,
		}
	}

	schedule, err := h.installments.Preview(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// Confirm godoc
// @Summary      Confirm an installment schedule
// @Description  Create one derived document per installment of a transaction, atomically
// @Tags         finance-installments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        X-Actor-ID header string false "Acting user ID"
// @Param        request body ConfirmInstallmentsBody true "Reviewed schedule"
// @Success      201 {object} APIResponse[[]financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /finance/installments/confirm [post]
func (h *InstallmentHandler) Confirm(c *gin.Context) {
	var body ConfirmInstallmentsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := financeapp.ConfirmInstallmentsRequest{
		TransactionID:  body.TransactionID,
		Direction:      body.Direction,
		CounterpartyID: body.CounterpartyID,
		Model:          body.Model,
		Series:         body.Series,
		Number:         body.Number,
		Kind:           body.Kind,
		IssueDate:      body.IssueDate,
		Installments:   make([]financeapp.ConfirmedInstallment, len(body.Installments)),
		CreatedBy:      actorID(c),
	}
	for i, in := range body.Installments {
		req.Installments[i] = financeapp.ConfirmedInstallment{
			SequenceNumber:  in.SequenceNumber,
			DueDate:         in.DueDate,
			Amount:          in.Amount,
			PaymentMethodID: in.PaymentMethodID,
		}
	}

	docs, err := h.installments.Confirm(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, docs)
}

// CancelByTransaction godoc
// @Summary      Cancel the documents of a transaction
// @Description  Cancel every open document derived from a transaction. Settled installments are left alone.
// @Tags         finance-installments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} APIResponse[[]financeapp.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /finance/transactions/{id}/cancel-documents [post]
func (h *InstallmentHandler) CancelByTransaction(c *gin.Context) {
	transactionID, ok := h.pathID(c, "id", "transaction")
	if !ok {
		return
	}
	docs, err := h.installments.CancelDerivedByTransaction(c.Request.Context(), tenantID(c), transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

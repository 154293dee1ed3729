package router

import (
	"net/http"

	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the API handlers wired by the server
type Handlers struct {
	Documents    *handler.DocumentHandler
	Installments *handler.InstallmentHandler
	Sweep        *handler.SweepHandler
	Costing      *handler.CostingHandler
}

// NewAPI returns a router carrying every domain group of the finance engine.
func NewAPI(engine *gin.Engine, h Handlers, opts ...Option) *Router {
	return NewRouter(engine, opts...).Register(NewFinanceGroup(h), NewTradeGroup(h))
}

// NewFinanceGroup builds the /finance routes
func NewFinanceGroup(h Handlers) *DomainGroup {
	finance := NewDomainGroup("finance", "/finance")

	documents := finance.Group("documents", "/documents")
	documents.
		Handle(http.MethodPost, "", "Create a standalone document", h.Documents.Create).
		Handle(http.MethodGet, "", "List documents", h.Documents.List).
		Handle(http.MethodGet, "/overdue", "List overdue documents", h.Documents.ListOverdue).
		Handle(http.MethodGet, "/summary", "Summarize outstanding balances", h.Documents.Summary).
		Handle(http.MethodGet, "/:id", "Get a document", h.Documents.Get).
		Handle(http.MethodPut, "/:id", "Update a document", h.Documents.Update).
		Handle(http.MethodDelete, "/:id", "Soft-delete a document", h.Documents.Remove).
		Handle(http.MethodPost, "/:id/settle", "Settle the full balance", h.Documents.Settle).
		Handle(http.MethodPost, "/:id/cancel", "Cancel a standalone document", h.Documents.Cancel)

	installments := finance.Group("installments", "/installments")
	installments.
		Handle(http.MethodPost, "/preview", "Preview an installment schedule", h.Installments.Preview).
		Handle(http.MethodPost, "/confirm", "Create the documents of a schedule", h.Installments.Confirm)

	finance.Handle(http.MethodPost, "/transactions/:id/cancel-documents",
		"Cancel the open documents of a transaction", h.Installments.CancelByTransaction)
	finance.Handle(http.MethodPost, "/overdue-sweep", "Mark past-due documents overdue", h.Sweep.Run)

	return finance
}

// NewTradeGroup builds the /trade routes
func NewTradeGroup(h Handlers) *DomainGroup {
	trade := NewDomainGroup("trade", "/trade")
	trade.Handle(http.MethodPost, "/costing/allocate", "Allocate overhead across line items", h.Costing.Allocate)
	return trade
}

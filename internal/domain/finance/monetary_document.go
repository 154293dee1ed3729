package finance

import (
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SettlementTolerance is the largest difference between the paid amount and the
// document total that still counts as full settlement
var SettlementTolerance = valueobject.NewMoney(1)

// Direction tells whether a document is owed to a supplier or by a customer
type Direction string

const (
	DirectionPayable    Direction = "PAYABLE"
	DirectionReceivable Direction = "RECEIVABLE"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionPayable || d == DirectionReceivable
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// CounterpartyRole returns the master-data role of the counterparty
func (d Direction) CounterpartyRole() acl.CounterpartyRole {
	if d == DirectionReceivable {
		return acl.CounterpartyRoleCustomer
	}
	return acl.CounterpartyRoleSupplier
}

// DocumentKind is the commercial type of a monetary document
type DocumentKind string

const (
	DocumentKindInvoice    DocumentKind = "INVOICE"
	DocumentKindDuplicate  DocumentKind = "DUPLICATE"
	DocumentKindBill       DocumentKind = "BILL"
	DocumentKindFiscalNote DocumentKind = "FISCAL_NOTE"
)

// IsValid checks if the kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindInvoice, DocumentKindDuplicate, DocumentKindBill, DocumentKindFiscalNote:
		return true
	}
	return false
}

// DocumentStatus represents the settlement status of a monetary document
type DocumentStatus string

const (
	DocumentStatusOpen      DocumentStatus = "OPEN"      // Awaiting settlement, not past due
	DocumentStatusOverdue   DocumentStatus = "OVERDUE"   // Awaiting settlement, past due
	DocumentStatusSettled   DocumentStatus = "SETTLED"   // Fully paid, balance = 0
	DocumentStatusCancelled DocumentStatus = "CANCELLED" // Cancelled, monetary fields kept as they were
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusOpen, DocumentStatusOverdue, DocumentStatusSettled, DocumentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusSettled || s == DocumentStatusCancelled
}

// IsOutstanding returns true if the document still awaits settlement
func (s DocumentStatus) IsOutstanding() bool {
	return s == DocumentStatusOpen || s == DocumentStatusOverdue
}

// MonetaryDocument is a payable or receivable obligation
type MonetaryDocument struct {
	shared.TenantAggregateRoot
	Direction         Direction
	Provenance        Provenance
	CounterpartyID    uuid.UUID
	CounterpartyName  string
	CounterpartyTaxID string
	DocumentNumber    string
	Kind              DocumentKind
	IssueDate         valueobject.Date
	DueDate           valueobject.Date
	SettlementDate    valueobject.Date
	OriginalAmount    valueobject.Money
	DiscountAmount    valueobject.Money
	InterestAmount    valueobject.Money
	PenaltyAmount     valueobject.Money
	PaidAmount        valueobject.Money
	Balance           valueobject.Money
	PaymentMethodID   *uuid.UUID
	SettledBy         *uuid.UUID
	Status            DocumentStatus
	Notes             string
	Removed           bool
	RemovedAt         *time.Time
	CancelledAt       *time.Time
}

// NewDocumentParams holds the input for creating a monetary document
type NewDocumentParams struct {
	Direction       Direction
	Provenance      Provenance
	Counterparty    acl.CounterpartyReference
	DocumentNumber  string
	Kind            DocumentKind
	IssueDate       valueobject.Date
	DueDate         valueobject.Date
	OriginalAmount  valueobject.Money
	DiscountAmount  valueobject.Money
	InterestAmount  valueobject.Money
	PenaltyAmount   valueobject.Money
	PaymentMethodID *uuid.UUID
	Notes           string
	CreatedBy       *uuid.UUID
}

// NewMonetaryDocument creates an OPEN monetary document
func NewMonetaryDocument(tenantID uuid.UUID, p NewDocumentParams) (*MonetaryDocument, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !p.Direction.IsValid() {
		return nil, shared.NewValidationError("INVALID_DIRECTION", "Direction must be PAYABLE or RECEIVABLE")
	}
	if p.Counterparty.IsEmpty() {
		return nil, shared.NewValidationError("INVALID_COUNTERPARTY", "Counterparty is required")
	}
	if p.Counterparty.Role() != p.Direction.CounterpartyRole() {
		return nil, shared.NewValidationError("INVALID_COUNTERPARTY_ROLE",
			fmt.Sprintf("A %s document requires a %s counterparty", p.Direction, p.Direction.CounterpartyRole()))
	}
	if p.DocumentNumber == "" {
		return nil, shared.NewValidationError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if len(p.DocumentNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_DOCUMENT_NUMBER", "Document number cannot exceed 50 characters")
	}
	if !p.Kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_DOCUMENT_KIND", "Document kind is not valid")
	}
	if err := validateDates(p.IssueDate, p.DueDate); err != nil {
		return nil, err
	}
	if !p.OriginalAmount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Original amount must be positive")
	}

	provenance := p.Provenance
	if provenance == nil {
		provenance = Standalone{}
	}
	if origin, ok := OriginOf(provenance); ok && origin.CounterpartyID != p.Counterparty.ID() {
		return nil, shared.NewValidationError("INVALID_COUNTERPARTY", "Counterparty does not match the originating transaction")
	}

	doc := &MonetaryDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Direction:           p.Direction,
		Provenance:          provenance,
		CounterpartyID:      p.Counterparty.ID(),
		CounterpartyName:    p.Counterparty.Name(),
		CounterpartyTaxID:   p.Counterparty.TaxID(),
		DocumentNumber:      p.DocumentNumber,
		Kind:                p.Kind,
		IssueDate:           p.IssueDate,
		DueDate:             p.DueDate,
		PaymentMethodID:     p.PaymentMethodID,
		Status:              DocumentStatusOpen,
		Notes:               p.Notes,
	}
	if p.CreatedBy != nil {
		doc.SetCreatedBy(*p.CreatedBy)
	}

	amounts := Amounts{
		Original: p.OriginalAmount,
		Discount: p.DiscountAmount,
		Interest: p.InterestAmount,
		Penalty:  p.PenaltyAmount,
	}
	if err := amounts.validateOutstanding(); err != nil {
		return nil, err
	}
	doc.applyAmounts(amounts)

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))

	return doc, nil
}

// Settlement carries the data of a full settlement
type Settlement struct {
	PaidAmount      valueobject.Money
	Discount        *valueobject.Money // overrides DiscountAmount when set
	Interest        *valueobject.Money // overrides InterestAmount when set
	Penalty         *valueobject.Money // overrides PenaltyAmount when set
	SettlementDate  valueobject.Date
	PaymentMethodID *uuid.UUID
	SettledBy       *uuid.UUID
}

// Settle fully settles the document. The paid amount must match the total
// (after overrides) within SettlementTolerance; partial payment is rejected.
func (d *MonetaryDocument) Settle(s Settlement) error {
	if err := d.ensureMutable("settle"); err != nil {
		return err
	}
	if !d.Status.IsOutstanding() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot settle document in %s status", d.Status))
	}
	if s.SettlementDate.IsZero() {
		return shared.NewValidationError("INVALID_SETTLEMENT_DATE", "Settlement date is required")
	}

	amounts := d.Amounts()
	amounts.Discount = overrideOr(s.Discount, amounts.Discount)
	amounts.Interest = overrideOr(s.Interest, amounts.Interest)
	amounts.Penalty = overrideOr(s.Penalty, amounts.Penalty)
	if err := amounts.validateComponents(); err != nil {
		return err
	}
	total := amounts.Total()
	if total.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Discount cannot exceed the document total")
	}
	if !s.PaidAmount.WithinTolerance(total, SettlementTolerance) {
		return shared.NewConflictError("PARTIAL_SETTLEMENT_NOT_ALLOWED",
			fmt.Sprintf("Paid amount %s does not settle the document total %s; only full settlement is allowed", s.PaidAmount, total))
	}

	previous := d.Status
	amounts.Paid = total
	d.applyAmounts(amounts)
	d.Status = DocumentStatusSettled
	d.SettlementDate = s.SettlementDate
	if s.PaymentMethodID != nil {
		d.PaymentMethodID = s.PaymentMethodID
	}
	d.SettledBy = s.SettledBy
	d.touch()

	d.AddDomainEvent(NewDocumentSettledEvent(d, previous))

	return nil
}

// Cancel cancels a standalone document. Derived documents can only be
// cancelled through their originating transaction.
func (d *MonetaryDocument) Cancel() error {
	if d.IsDerived() {
		return shared.NewConflictError("DERIVED_DOCUMENT",
			"Document was generated from a transaction; cancel the transaction instead")
	}
	return d.cancel()
}

// CancelWithTransaction cancels a derived document on behalf of its originating transaction
func (d *MonetaryDocument) CancelWithTransaction(transactionID uuid.UUID) error {
	origin, ok := OriginOf(d.Provenance)
	if !ok || origin.TransactionID != transactionID {
		return shared.NewConflictError("NOT_DERIVED_FROM_TRANSACTION", "Document was not generated from this transaction")
	}
	return d.cancel()
}

func (d *MonetaryDocument) cancel() error {
	if err := d.ensureMutable("cancel"); err != nil {
		return err
	}
	if !d.Status.IsOutstanding() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot cancel document in %s status", d.Status))
	}

	previous := d.Status
	now := time.Now()
	d.Status = DocumentStatusCancelled
	d.CancelledAt = &now
	d.touch()

	d.AddDomainEvent(NewDocumentCancelledEvent(d, previous))

	return nil
}

// Remove soft-deletes the document. OPEN, OVERDUE and CANCELLED documents can
// be removed; SETTLED ones cannot.
func (d *MonetaryDocument) Remove() error {
	if d.Removed {
		return shared.NewConflictError("ALREADY_REMOVED", "Document is already removed")
	}
	if d.Status == DocumentStatusSettled {
		return shared.NewConflictError("INVALID_STATE", "Cannot remove a settled document")
	}

	now := time.Now()
	d.Removed = true
	d.RemovedAt = &now
	d.touch()

	d.AddDomainEvent(NewDocumentRemovedEvent(d))

	return nil
}

// DocumentUpdate holds the editable fields of a document; nil fields are left unchanged
type DocumentUpdate struct {
	DocumentNumber  *string
	Kind            *DocumentKind
	IssueDate       *valueobject.Date
	DueDate         *valueobject.Date
	OriginalAmount  *valueobject.Money
	DiscountAmount  *valueobject.Money
	InterestAmount  *valueobject.Money
	PenaltyAmount   *valueobject.Money
	PaidAmount      *valueobject.Money
	PaymentMethodID *uuid.UUID
	Notes           *string
}

// Update edits a document that is not settled or cancelled and recomputes its balance
func (d *MonetaryDocument) Update(u DocumentUpdate) error {
	if err := d.ensureMutable("update"); err != nil {
		return err
	}
	if d.Status.IsTerminal() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot update document in %s status", d.Status))
	}

	number := d.DocumentNumber
	if u.DocumentNumber != nil {
		number = *u.DocumentNumber
		if number == "" || len(number) > 50 {
			return shared.NewValidationError("INVALID_DOCUMENT_NUMBER", "Document number must have 1 to 50 characters")
		}
	}
	kind := d.Kind
	if u.Kind != nil {
		kind = *u.Kind
		if !kind.IsValid() {
			return shared.NewValidationError("INVALID_DOCUMENT_KIND", "Document kind is not valid")
		}
	}
	issue := valueOr(u.IssueDate, d.IssueDate)
	due := valueOr(u.DueDate, d.DueDate)
	if err := validateDates(issue, due); err != nil {
		return err
	}

	amounts := d.Amounts()
	amounts.Original = overrideOr(u.OriginalAmount, amounts.Original)
	amounts.Discount = overrideOr(u.DiscountAmount, amounts.Discount)
	amounts.Interest = overrideOr(u.InterestAmount, amounts.Interest)
	amounts.Penalty = overrideOr(u.PenaltyAmount, amounts.Penalty)
	amounts.Paid = overrideOr(u.PaidAmount, amounts.Paid)
	if !amounts.Original.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Original amount must be positive")
	}
	if err := amounts.validateOutstanding(); err != nil {
		return err
	}

	d.DocumentNumber = number
	d.Kind = kind
	d.IssueDate = issue
	d.DueDate = due
	d.applyAmounts(amounts)
	if u.PaymentMethodID != nil {
		d.PaymentMethodID = u.PaymentMethodID
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	d.touch()

	d.AddDomainEvent(NewDocumentUpdatedEvent(d))

	return nil
}

// MarkOverdue moves an OPEN document whose due date is before today to OVERDUE.
// Returns false when the document does not qualify.
func (d *MonetaryDocument) MarkOverdue(today valueobject.Date) bool {
	if d.Removed || d.Status != DocumentStatusOpen || !d.DueDate.Before(today) {
		return false
	}
	d.Status = DocumentStatusOverdue
	d.touch()
	d.AddDomainEvent(NewDocumentMarkedOverdueEvent(d))
	return true
}

// Amounts returns the monetary fields of the document
func (d *MonetaryDocument) Amounts() Amounts {
	return Amounts{
		Original: d.OriginalAmount,
		Discount: d.DiscountAmount,
		Interest: d.InterestAmount,
		Penalty:  d.PenaltyAmount,
		Paid:     d.PaidAmount,
	}
}

// IsDerived returns true if the document was generated from a transaction
func (d *MonetaryDocument) IsDerived() bool {
	return d.Provenance != nil && d.Provenance.IsDerived()
}

// IsSettled returns true if the document is settled
func (d *MonetaryDocument) IsSettled() bool {
	return d.Status == DocumentStatusSettled
}

// IsCancelled returns true if the document is cancelled
func (d *MonetaryDocument) IsCancelled() bool {
	return d.Status == DocumentStatusCancelled
}

// IsPastDue returns true if the document is outstanding and its due date is before today
func (d *MonetaryDocument) IsPastDue(today valueobject.Date) bool {
	return d.Status.IsOutstanding() && d.DueDate.Before(today)
}

// DaysOverdue returns how many days past due the document is, or 0
func (d *MonetaryDocument) DaysOverdue(today valueobject.Date) int {
	if !d.IsPastDue(today) {
		return 0
	}
	return int(today.Time().Sub(d.DueDate.Time()).Hours() / 24)
}

func (d *MonetaryDocument) ensureMutable(op string) error {
	if d.Removed {
		return shared.NewConflictError("DOCUMENT_REMOVED", fmt.Sprintf("Cannot %s a removed document", op))
	}
	return nil
}

func (d *MonetaryDocument) applyAmounts(a Amounts) {
	d.OriginalAmount = a.Original
	d.DiscountAmount = a.Discount
	d.InterestAmount = a.Interest
	d.PenaltyAmount = a.Penalty
	d.PaidAmount = a.Paid
	d.Balance = a.Balance()
}

func (d *MonetaryDocument) touch() {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

func validateDates(issue, due valueobject.Date) error {
	if issue.IsZero() {
		return shared.NewValidationError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if due.IsZero() {
		return shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	}
	if due.Before(issue) {
		return shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	return nil
}

func overrideOr(v *valueobject.Money, fallback valueobject.Money) valueobject.Money {
	if v == nil {
		return fallback
	}
	return *v
}

func valueOr(v *valueobject.Date, fallback valueobject.Date) valueobject.Date {
	if v == nil {
		return fallback
	}
	return *v
}

// Amounts groups the monetary components of a document
type Amounts struct {
	Original valueobject.Money
	Discount valueobject.Money
	Interest valueobject.Money
	Penalty  valueobject.Money
	Paid     valueobject.Money
}

// Total returns original - discount + interest + penalty
func (a Amounts) Total() valueobject.Money {
	return a.Original.Subtract(a.Discount).Add(a.Interest).Add(a.Penalty)
}

// Balance returns Total - paid
func (a Amounts) Balance() valueobject.Money {
	return a.Total().Subtract(a.Paid)
}

// validateComponents checks that every component is non-negative and within
// valueobject.MaxCents, and that the total fits the same bound. In-range
// components cannot overflow when summed.
func (a Amounts) validateComponents() error {
	for _, c := range []struct {
		name   string
		amount valueobject.Money
	}{
		{"Original", a.Original},
		{"Discount", a.Discount},
		{"Interest", a.Interest},
		{"Penalty", a.Penalty},
		{"Paid", a.Paid},
	} {
		if c.amount.IsNegative() {
			return shared.NewValidationError("INVALID_AMOUNT", fmt.Sprintf("%s amount cannot be negative", c.name))
		}
		if !c.amount.InRange() {
			return shared.NewValidationError("AMOUNT_OUT_OF_RANGE",
				fmt.Sprintf("%s amount exceeds the maximum of %s", c.name, valueobject.NewMoney(valueobject.MaxCents)))
		}
	}
	if total := a.Total(); !total.InRange() {
		return shared.NewValidationError("AMOUNT_OUT_OF_RANGE",
			fmt.Sprintf("Document total %s exceeds the maximum of %s", total, valueobject.NewMoney(valueobject.MaxCents)))
	}
	return nil
}

// validateOutstanding checks the amounts of a document that is not settled:
// every component is non-negative and something is left to pay.
func (a Amounts) validateOutstanding() error {
	if err := a.validateComponents(); err != nil {
		return err
	}
	if !a.Balance().IsPositive() {
		return shared.NewValidationError("INVALID_BALANCE",
			fmt.Sprintf("Balance must stay positive until settlement, got %s", a.Balance()))
	}
	return nil
}

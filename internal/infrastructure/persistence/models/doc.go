// Package models holds the GORM row types. Domain types carry no ORM tags;
// each model converts to and from its aggregate.
//
//   - base.go: BaseModel, TenantAggregateModel and their conversions
//   - finance.go: MonetaryDocumentModel and its provenance columns
//   - partner.go: read models of master data (suppliers, customers, payment methods, employees)
package models

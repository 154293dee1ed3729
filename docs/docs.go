// Package docs registers the OpenAPI description of the finance API with
// swag, so gin-swagger can serve it under /swagger. Keep it in step with
// the handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.1.0",
  "info": {
    "title": "{{.Title}}",
    "description": "{{.Description}}",
    "version": "{{.Version}}"
  },
  "servers": [{"url": "/api/v1"}],
  "paths": {
    "/finance/documents": {
      "get": {
        "tags": ["finance-documents"],
        "summary": "List documents",
        "parameters": [
          {"$ref": "#/components/parameters/Tenant"},
          {"name": "direction", "in": "query", "schema": {"$ref": "#/components/schemas/Direction"}},
          {"name": "status", "in": "query", "schema": {"$ref": "#/components/schemas/Status"}},
          {"name": "counterparty_id", "in": "query", "schema": {"type": "string", "format": "uuid"}},
          {"name": "transaction_id", "in": "query", "schema": {"type": "string", "format": "uuid"}},
          {"name": "due_from", "in": "query", "schema": {"type": "string", "format": "date"}},
          {"name": "due_to", "in": "query", "schema": {"type": "string", "format": "date"}},
          {"name": "search", "in": "query", "schema": {"type": "string"}},
          {"$ref": "#/components/parameters/Page"},
          {"$ref": "#/components/parameters/PageSize"}
        ],
        "responses": {"200": {"$ref": "#/components/responses/DocumentPage"}, "400": {"$ref": "#/components/responses/Failure"}}
      },
      "post": {
        "tags": ["finance-documents"],
        "summary": "Create a document",
        "parameters": [{"$ref": "#/components/parameters/Tenant"}, {"$ref": "#/components/parameters/Actor"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/CreateDocument"}}}},
        "responses": {"201": {"$ref": "#/components/responses/Document"}, "400": {"$ref": "#/components/responses/Failure"}, "422": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/documents/overdue": {
      "get": {
        "tags": ["finance-documents"],
        "summary": "List overdue documents",
        "parameters": [
          {"$ref": "#/components/parameters/Tenant"},
          {"name": "direction", "in": "query", "schema": {"$ref": "#/components/schemas/Direction"}},
          {"$ref": "#/components/parameters/Page"},
          {"$ref": "#/components/parameters/PageSize"}
        ],
        "responses": {"200": {"$ref": "#/components/responses/DocumentPage"}}
      }
    },
    "/finance/documents/summary": {
      "get": {
        "tags": ["finance-documents"],
        "summary": "Summarize documents",
        "parameters": [
          {"$ref": "#/components/parameters/Tenant"},
          {"name": "direction", "in": "query", "schema": {"$ref": "#/components/schemas/Direction"}}
        ],
        "responses": {"200": {"$ref": "#/components/responses/Envelope"}}
      }
    },
    "/finance/documents/{id}": {
      "parameters": [{"$ref": "#/components/parameters/Tenant"}, {"$ref": "#/components/parameters/DocumentID"}],
      "get": {
        "tags": ["finance-documents"],
        "summary": "Get a document",
        "responses": {"200": {"$ref": "#/components/responses/Document"}, "404": {"$ref": "#/components/responses/Failure"}}
      },
      "put": {
        "tags": ["finance-documents"],
        "summary": "Update a document",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/UpdateDocument"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Document"}, "404": {"$ref": "#/components/responses/Failure"}, "409": {"$ref": "#/components/responses/Failure"}}
      },
      "delete": {
        "tags": ["finance-documents"],
        "summary": "Remove a document",
        "responses": {"204": {"description": "Removed"}, "404": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/documents/{id}/settle": {
      "post": {
        "tags": ["finance-documents"],
        "summary": "Settle a document",
        "parameters": [{"$ref": "#/components/parameters/Tenant"}, {"$ref": "#/components/parameters/Actor"}, {"$ref": "#/components/parameters/DocumentID"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SettleDocument"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Document"}, "409": {"$ref": "#/components/responses/Failure"}, "422": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/documents/{id}/cancel": {
      "post": {
        "tags": ["finance-documents"],
        "summary": "Cancel a document",
        "parameters": [{"$ref": "#/components/parameters/Tenant"}, {"$ref": "#/components/parameters/DocumentID"}],
        "responses": {"200": {"$ref": "#/components/responses/Document"}, "409": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/installments/preview": {
      "post": {
        "tags": ["finance-installments"],
        "summary": "Preview an installment schedule",
        "parameters": [{"$ref": "#/components/parameters/Tenant"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Envelope"}, "400": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/installments/confirm": {
      "post": {
        "tags": ["finance-installments"],
        "summary": "Confirm an installment schedule",
        "parameters": [{"$ref": "#/components/parameters/Tenant"}, {"$ref": "#/components/parameters/Actor"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object"}}}},
        "responses": {"201": {"$ref": "#/components/responses/Envelope"}, "422": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/finance/transactions/{id}/cancel-documents": {
      "post": {
        "tags": ["finance-installments"],
        "summary": "Cancel the documents of a transaction",
        "parameters": [
          {"$ref": "#/components/parameters/Tenant"},
          {"name": "id", "in": "path", "required": true, "description": "Transaction ID", "schema": {"type": "string", "format": "uuid"}}
        ],
        "responses": {"200": {"$ref": "#/components/responses/Envelope"}}
      }
    },
    "/finance/overdue-sweep": {
      "post": {
        "tags": ["finance-maintenance"],
        "summary": "Run the overdue sweep",
        "responses": {"200": {"$ref": "#/components/responses/Envelope"}, "503": {"$ref": "#/components/responses/Failure"}}
      }
    },
    "/trade/costing/allocate": {
      "post": {
        "tags": ["trade-costing"],
        "summary": "Allocate overhead across line items",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Envelope"}, "400": {"$ref": "#/components/responses/Failure"}}
      }
    }
  },
  "components": {
    "parameters": {
      "Tenant": {"name": "X-Tenant-ID", "in": "header", "description": "Tenant ID", "schema": {"type": "string", "format": "uuid"}},
      "Actor": {"name": "X-Actor-ID", "in": "header", "description": "Acting user ID", "schema": {"type": "string", "format": "uuid"}},
      "DocumentID": {"name": "id", "in": "path", "required": true, "description": "Document ID", "schema": {"type": "string", "format": "uuid"}},
      "Page": {"name": "page", "in": "query", "schema": {"type": "integer", "default": 1}},
      "PageSize": {"name": "page_size", "in": "query", "schema": {"type": "integer", "default": 20}}
    },
    "schemas": {
      "Cents": {"type": "integer", "format": "int64", "description": "Amount in cents"},
      "Direction": {"type": "string", "enum": ["PAYABLE", "RECEIVABLE"]},
      "Status": {"type": "string", "enum": ["OPEN", "OVERDUE", "SETTLED", "CANCELLED"]},
      "ErrorInfo": {
        "type": "object",
        "properties": {
          "code": {"type": "string"},
          "message": {"type": "string"},
          "request_id": {"type": "string"}
        }
      },
      "Provenance": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["STANDALONE", "DERIVED"]},
          "transaction_id": {"type": "string", "format": "uuid"},
          "installment_seq": {"type": "integer"},
          "model": {"type": "string"},
          "series": {"type": "string"},
          "number": {"type": "string"}
        }
      },
      "Document": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "format": "uuid"},
          "tenant_id": {"type": "string", "format": "uuid"},
          "direction": {"$ref": "#/components/schemas/Direction"},
          "provenance": {"$ref": "#/components/schemas/Provenance"},
          "counterparty_id": {"type": "string", "format": "uuid"},
          "counterparty_name": {"type": "string"},
          "counterparty_tax_id": {"type": "string"},
          "document_number": {"type": "string"},
          "kind": {"type": "string"},
          "issue_date": {"type": "string", "format": "date"},
          "due_date": {"type": "string", "format": "date"},
          "settlement_date": {"type": ["string", "null"], "format": "date"},
          "original_amount": {"$ref": "#/components/schemas/Cents"},
          "discount_amount": {"$ref": "#/components/schemas/Cents"},
          "interest_amount": {"$ref": "#/components/schemas/Cents"},
          "penalty_amount": {"$ref": "#/components/schemas/Cents"},
          "paid_amount": {"$ref": "#/components/schemas/Cents"},
          "balance": {"$ref": "#/components/schemas/Cents"},
          "balance_decimal": {"type": "string"},
          "payment_method_id": {"type": "string", "format": "uuid"},
          "payment_method_name": {"type": "string"},
          "settled_by": {"type": "string", "format": "uuid"},
          "settled_by_name": {"type": "string"},
          "created_by": {"type": "string", "format": "uuid"},
          "created_by_name": {"type": "string"},
          "status": {"$ref": "#/components/schemas/Status"},
          "notes": {"type": "string"},
          "removed": {"type": "boolean"},
          "removed_at": {"type": "string", "format": "date-time"},
          "cancelled_at": {"type": "string", "format": "date-time"},
          "created_at": {"type": "string", "format": "date-time"},
          "updated_at": {"type": "string", "format": "date-time"},
          "version": {"type": "integer"}
        }
      },
      "CreateDocument": {
        "type": "object",
        "required": ["direction", "counterparty_id", "document_number", "kind", "issue_date", "due_date", "original_amount"],
        "properties": {
          "direction": {"$ref": "#/components/schemas/Direction"},
          "counterparty_id": {"type": "string", "format": "uuid"},
          "document_number": {"type": "string", "maxLength": 50},
          "kind": {"type": "string"},
          "issue_date": {"type": "string", "format": "date"},
          "due_date": {"type": "string", "format": "date"},
          "original_amount": {"$ref": "#/components/schemas/Cents"},
          "discount_amount": {"$ref": "#/components/schemas/Cents"},
          "interest_amount": {"$ref": "#/components/schemas/Cents"},
          "penalty_amount": {"$ref": "#/components/schemas/Cents"},
          "payment_method_id": {"type": "string", "format": "uuid"},
          "notes": {"type": "string", "maxLength": 2000}
        }
      },
      "UpdateDocument": {
        "type": "object",
        "description": "Omitted fields are left unchanged",
        "properties": {
          "document_number": {"type": "string", "maxLength": 50},
          "kind": {"type": "string"},
          "issue_date": {"type": "string", "format": "date"},
          "due_date": {"type": "string", "format": "date"},
          "original_amount": {"$ref": "#/components/schemas/Cents"},
          "discount_amount": {"$ref": "#/components/schemas/Cents"},
          "interest_amount": {"$ref": "#/components/schemas/Cents"},
          "penalty_amount": {"$ref": "#/components/schemas/Cents"},
          "paid_amount": {"$ref": "#/components/schemas/Cents"},
          "payment_method_id": {"type": "string", "format": "uuid"},
          "notes": {"type": "string", "maxLength": 2000}
        }
      },
      "SettleDocument": {
        "type": "object",
        "required": ["paid_amount", "settlement_date"],
        "properties": {
          "paid_amount": {"$ref": "#/components/schemas/Cents"},
          "discount_amount": {"$ref": "#/components/schemas/Cents"},
          "interest_amount": {"$ref": "#/components/schemas/Cents"},
          "penalty_amount": {"$ref": "#/components/schemas/Cents"},
          "settlement_date": {"type": "string", "format": "date"},
          "payment_method_id": {"type": "string", "format": "uuid"}
        }
      }
    },
    "responses": {
      "Envelope": {
        "description": "Success envelope",
        "content": {"application/json": {"schema": {"type": "object", "properties": {"success": {"type": "boolean"}, "data": {}}}}}
      },
      "Document": {
        "description": "One document",
        "content": {"application/json": {"schema": {"type": "object", "properties": {"success": {"type": "boolean"}, "data": {"$ref": "#/components/schemas/Document"}}}}}
      },
      "DocumentPage": {
        "description": "A page of documents",
        "content": {"application/json": {"schema": {"type": "object", "properties": {
          "success": {"type": "boolean"},
          "data": {"type": "array", "items": {"$ref": "#/components/schemas/Document"}},
          "meta": {"type": "object", "properties": {"total": {"type": "integer"}, "page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_pages": {"type": "integer"}}}
        }}}}
      },
      "Failure": {
        "description": "Failure envelope",
        "content": {"application/json": {"schema": {"type": "object", "properties": {"success": {"type": "boolean"}, "error": {"$ref": "#/components/schemas/ErrorInfo"}}}}}
      }
    }
  }
}`

// SwaggerInfo holds the exported metadata of the finance API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Title:            "Finance Engine API",
	Description:      "Payables, receivables, installment schedules and landed-cost allocation. Amounts are integer cents and dates are YYYY-MM-DD.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

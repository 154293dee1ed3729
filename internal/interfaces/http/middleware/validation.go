package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// enumTag is a custom binding tag accepting a closed set of values.
type enumTag struct {
	tag    string
	values []string
}

var enumTags = []enumTag{
	{"direction", []string{string(finance.DirectionPayable), string(finance.DirectionReceivable)}},
	{"doc_kind", []string{
		string(finance.DocumentKindInvoice),
		string(finance.DocumentKindDuplicate),
		string(finance.DocumentKindBill),
		string(finance.DocumentKindFiscalNote),
	}},
}

// SetupValidator installs the finance tags on gin's default validator.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations reports fields by their json (or form) name and adds
// the enum tags direction and doc_kind.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(fieldName)
	for _, e := range enumTags {
		allowed := e.values
		_ = v.RegisterValidation(e.tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(allowed, fl.Field().String())
		})
	}
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// FormatValidationErrors renders a binding error. Field failures are listed
// one by one; anything else (a malformed body) is reported as invalid JSON.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return dto.Failure(dto.ErrCodeInvalidJSON, "Malformed request body: "+err.Error(), requestID)
	}
	details := make([]dto.ValidationDetail, len(fields))
	for i, fe := range fields {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)}
	}
	return dto.InvalidFields(requestID, details)
}

// HandleValidationError answers 400 for a failed ShouldBind.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s%s", p, unit)
	case "max":
		return fmt.Sprintf("Must be at most %s%s", p, unit)
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + p
	case "gt":
		return "Must be greater than " + p
	case "gte":
		return "Must be greater than or equal to " + p
	case "lte":
		return "Must be less than or equal to " + p
	case "dive":
		return "Invalid list entry"
	}
	for _, e := range enumTags {
		if e.tag == fe.Tag() {
			return "Must be one of: " + strings.Join(e.values, " ")
		}
	}
	return "Invalid value"
}

package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupValidatorOnce sync.Once

// SetupValidator configures gin's validator: JSON names in errors and the
// tax choice tags
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		RegisterTaxValidators(v)
	})
}

// RegisterTaxValidators adds the tax_amount_type, tax_type, tax_option
// and tax_discount_option tags to v
func RegisterTaxValidators(v *validator.Validate) {
	_ = v.RegisterValidation("tax_amount_type", func(fl validator.FieldLevel) bool {
		return tax.AmountType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tax_type", func(fl validator.FieldLevel) bool {
		return tax.Type(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tax_option", func(fl validator.FieldLevel) bool {
		return tax.Option(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tax_discount_option", func(fl validator.FieldLevel) bool {
		return tax.DiscountOption(fl.Field().String()).IsValid()
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "tax_amount_type":
		return "Must be one of: percentage, fixed_value"
	case "tax_type":
		return "Must be one of: sale, purchase, withholding"
	case "tax_option":
		return "Must be one of: tax_inclusive, tax_exclusive"
	case "tax_discount_option":
		return "Must be one of: before_discount, after_discount"
	default:
		return "Invalid value"
	}
}

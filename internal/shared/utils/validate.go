package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// DECIMAL(14,2): whole cents below one trillion
	maxMoney = decimal.New(1, 12)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Money fields are decimals; compare them as numbers in tags like gt=0.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		_ = validate.RegisterValidation("money", validateMoney)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateMoney checks scale and size of a decimal amount. The custom type
// func has already turned the field into a float64, so the original value is
// read back from the parent struct.
func validateMoney(fl validator.FieldLevel) bool {
	field := reflect.Indirect(fl.Parent()).FieldByName(fl.StructFieldName())
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return d.Equal(d.Round(2)) && d.Abs().LessThan(maxMoney)
}

// ValidateStruct runs the `validate` tags of a request DTO and returns a
// validation error listing every failing field.
func ValidateStruct(op string, s interface{}) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation(op, "invalid request", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperror.Validation(op, strings.Join(msgs, "; "), err)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), comparisonWord(fe.Tag()), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "money":
		return fmt.Sprintf("%s must have at most 2 decimal places and be below %s", fe.Field(), maxMoney.String())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func comparisonWord(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}

// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

const maxCategoryName = 50

var hundred = decimal.NewFromInt(100)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("money", validateMoney)
		_ = v.RegisterValidation("percent", validatePercent)
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("category_name", validateCategoryName)
	}
}

// decimalValue lets tags on decimal.Decimal fields see the number as a string.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func parseDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// validateMoney accepts positive amounts with at most two decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	if !ok {
		return false
	}
	return d.IsPositive() && d.Equal(d.Round(2))
}

// validatePercent accepts 0 < x <= 100.
func validatePercent(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	if !ok {
		return false
	}
	return d.IsPositive() && d.LessThanOrEqual(hundred)
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func validateCategoryName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	return name != "" && len(name) <= maxCategoryName
}

package services

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var (
	validate   = newValidator()
	cnicDigits = regexp.MustCompile(`^[0-9]{13}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("cnic", func(fl validator.FieldLevel) bool {
		return cnicDigits.MatchString(NormalizeCNIC(fl.Field().String()))
	})
	return v
}

// NormalizeCNIC strips the dashes and spaces people type into identity
// numbers (35202-1234567-1).
func NormalizeCNIC(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func ValidCNIC(s string) bool {
	return cnicDigits.MatchString(NormalizeCNIC(s))
}

// MaxAmount is the largest value a decimal(14,2) amount column holds.
const MaxAmount = 999999999999.99

// checkAmount rejects amounts the ledger cannot store exactly: non-finite
// values, anything below one paisa or above MaxAmount, and more than two
// decimal places.
func checkAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperr.Validation(field, "must be a finite number")
	}
	if v < 0.01 {
		return apperr.Validation(field, "must be a positive number")
	}
	if v > MaxAmount {
		return apperr.Validation(field, "must not exceed "+strconv.FormatFloat(MaxAmount, 'f', 2, 64))
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		return apperr.Validation(field, "must have at most 2 decimal places")
	}
	return nil
}

// validateStruct runs tag validation and reports the first failing field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("", "invalid input")
	}
	fe := verrs[0]
	return apperr.Validation(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "cnic":
		return "must be a 13-digit CNIC"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must not exceed " + fe.Param()
	}
	return "is invalid"
}

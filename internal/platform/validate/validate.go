// Package validate wraps go-playground/validator with the domain-specific
// rules this gateway needs on request bodies. Handlers call Struct and
// translate failures into field-level causes; deep format rules for flow
// forms live with the flows themselves.
package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "investgate/pkg/domain-errors"
)

var (
	panRe  = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscRe = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

var instance = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Custom tags for the India-specific identifier formats.
	_ = v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		return panRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscRe.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates a request struct and converts any violations into a coded
// invalid-input error listing the offending fields.
func Struct(req any) error {
	err := instance.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid request")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return dErrors.New(dErrors.CodeInvalidInput, strings.Join(fields, "; "))
}

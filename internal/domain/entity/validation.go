package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// フィールド名はJSONタグで報告する
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs struct tag validation and converts the first failure
// into a *ValidationError. messages maps "field.tag" to the text shown to
// the user.
func validateStruct(s any, messages map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	fe := errs[0]
	msg, ok := messages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("failed on '%s' rule", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

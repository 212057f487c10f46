package server

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
)

var registerValidatorsOnce sync.Once

// registerValidators installs the custom binding tags on gin's validator:
// snowflake accepts a non-zero decimal id, role accepts a known user role.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
			id, err := snowflake.ParseString(strings.TrimSpace(fl.Field().String()))
			return err == nil && id > 0
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return authorization.Role(strings.TrimSpace(fl.Field().String())).Valid()
		})
	})
}

func jsonFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// bindingError turns a gin binding failure into field-level validation errors.
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidRequestError()
	}

	out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: bindingMessage(fe),
		})
	}
	return out
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "snowflake":
		return "must be a valid id"
	case "role":
		return "must be volunteer, organization or admin"
	default:
		return "invalid value"
	}
}

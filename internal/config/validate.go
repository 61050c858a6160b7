package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("dirname", isDirName)
	return v
}

// isDirName accepts one path element that stays inside its parent.
func isDirName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// Validate ensures the config is complete and consistent.
// Failures wrap ErrConfigValidation.
func (c InstallConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrConfigValidation, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "InstallConfig.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(messages.ConfigFieldRequiredFmt, field)
	case "startswith":
		return fmt.Sprintf(messages.ConfigFieldAbsolutePathFmt, field, fe.Value())
	case "url":
		return fmt.Sprintf(messages.ConfigFieldURLFmt, field, fe.Value())
	case "dirname":
		return fmt.Sprintf(messages.ConfigFieldDirNameFmt, field, fe.Value())
	case "min", "max":
		return fmt.Sprintf(messages.ConfigFieldRangeFmt, field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf(messages.ConfigFieldInvalidFmt, field, fe.Value())
	}
}

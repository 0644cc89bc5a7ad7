package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	_ = v.RegisterValidation("audit_action", func(fl validator.FieldLevel) bool {
		return IsValidAction(Action(fl.Field().String()))
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return IsValidRole(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return isPhone(fl.Field().String())
	})
	return v
}

// isPhone accepts exactly ten digits.
func isPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Validate checks v against its validate tags and reports each offending
// field as a Violation of entity.
func Validate(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	verr := &ValidationError{Entity: entity}
	for _, fe := range fieldErrs {
		verr.Violations = append(verr.Violations, violationOf(fe))
	}
	return verr
}

func violationOf(fe validator.FieldError) Violation {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return Violation{Field: field, Rule: RuleRequired, Message: field + " is required"}
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return Violation{Field: field, Rule: RuleRequired, Message: field + " is required"}
			}
			return Violation{Field: field, Rule: RuleMin, Message: fmt.Sprintf("%s must be at least %s characters", field, fe.Param())}
		}
		return Violation{Field: field, Rule: RuleMin, Message: fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "max":
		return Violation{Field: field, Rule: RuleMax, Message: fmt.Sprintf("%s must be at most %s", field, fe.Param())}
	case "email":
		return Violation{Field: field, Rule: RuleEmail, Message: field + " must be a valid email address"}
	case "objectid":
		return Violation{Field: field, Rule: RuleFormat, Message: field + " must be a 24-character hex id"}
	case "audit_action":
		names := make([]string, 0, len(actions))
		for _, a := range actions {
			names = append(names, string(a))
		}
		return Violation{Field: field, Rule: RuleEnum, Message: fmt.Sprintf("%s %q is not one of %s", field, fe.Value(), strings.Join(names, ", "))}
	case "phone":
		return Violation{Field: field, Rule: RuleFormat, Message: field + " must be 10 digits"}
	case "url":
		return Violation{Field: field, Rule: RuleFormat, Message: field + " must be an absolute URL"}
	case "nefield":
		return Violation{Field: field, Rule: RuleFormat, Message: field + " must differ from the current password"}
	case "role":
		return Violation{Field: field, Rule: RuleEnum, Message: fmt.Sprintf("%s %q is not one of %s", field, fe.Value(), strings.Join(roles, ", "))}
	}
	return Violation{Field: field, Rule: fe.Tag(), Message: field + " is invalid"}
}

// trimmed returns a copy of *p without surrounding space. The caller's string
// is left untouched.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

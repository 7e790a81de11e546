package utils

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterCustomValidations registers the project's validation tags on gin's validator
func RegisterCustomValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(fieldName)
			_ = v.RegisterValidation("phone", validatePhone)
			_ = v.RegisterValidation("weburl", validateWebURL)
		}
	})
}

// fieldName reports fields by their json (or form) name so messages match the request
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func validateWebURL(fl validator.FieldLevel) bool {
	return IsWebURL(fl.Field().String())
}

// IsWebURL reports whether s is an absolute http(s) URL with a host
func IsWebURL(s string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TranslateValidationError turns binding errors into a field -> message map.
// Errors that are not validation errors (bad JSON, wrong types) are reported under "body".
func TranslateValidationError(err error) map[string]string {
	messages := make(map[string]string)

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		messages["body"] = err.Error()
		return messages
	}

	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages[field] = field + " is required"
		case "email":
			messages[field] = "invalid email format"
		case "phone":
			messages[field] = field + " must contain 10 to 15 digits"
		case "weburl", "url":
			messages[field] = field + " must be a valid http(s) URL"
		case "min":
			messages[field] = field + " must be at least " + fe.Param()
		case "max":
			messages[field] = field + " must be at most " + fe.Param()
		case "gte":
			messages[field] = field + " must be greater than or equal to " + fe.Param()
		case "lte":
			messages[field] = field + " must be less than or equal to " + fe.Param()
		case "len":
			messages[field] = field + " must be exactly " + fe.Param() + " characters"
		case "numeric":
			messages[field] = field + " must contain only numbers"
		case "oneof":
			messages[field] = field + " must be one of: " + fe.Param()
		default:
			messages[field] = field + " is invalid"
		}
	}
	return messages
}

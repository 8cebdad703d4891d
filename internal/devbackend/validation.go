package devbackend

import (
	"fmt"
	"strings"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок
const (
	CodeRequired        = "required"
	CodeReadOnly        = "readonly_field"
	CodeVersionConflict = "version_conflict"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// системные поля: их нельзя прислать в теле
var systemFields = map[string]struct{}{
	"id": {}, "created_at": {}, "updated_at": {},
}

// checkSystem вырезает version и ругается на системные поля
func checkSystem(obj map[string]any) []FieldError {
	var errs []FieldError
	delete(obj, "version")
	for k := range obj {
		if _, sys := systemFields[k]; sys {
			errs = append(errs, ferr(CodeReadOnly, k, fmt.Sprintf("Field '%s' is read-only", k)))
		}
	}
	return errs
}

// checkRequired: отсутствующее поле, null и пустая строка считаются нарушением
func checkRequired(required []string, obj map[string]any) []FieldError {
	var errs []FieldError
	for _, name := range required {
		v, ok := obj[name]
		if !ok || v == nil {
			errs = append(errs, ferr(CodeRequired, name, "Field '"+name+"' is required"))
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			errs = append(errs, ferr(CodeRequired, name, "Field '"+name+"' is required"))
		}
	}
	return errs
}

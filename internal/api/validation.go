package api

import (
	"net/http"
	"sort"

	"portal/internal/registry"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок запроса к BFF
const (
	ErrRequired     = "required"
	ErrUnknownField = "unknown_field"
	ErrNotFound     = "not_found"
	ErrNoRecordID   = "no_record_id"
	ErrNotConfirmed = "not_confirmed"
)

// valuesReq: тело POST/PUT, значения формы строками (как их отправляет селект/инпут)
type valuesReq struct {
	Values map[string]string `json:"values" binding:"required"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"user_type" binding:"required"`
}

type reloadReq struct {
	RegistryDir string `json:"registry_dir"`
}

// checkColumns: форма принимает только колонки таблицы
func checkColumns(td registry.TableDescriptor, values map[string]string) []FieldError {
	known := make(map[string]struct{}, len(td.Columns))
	for _, c := range td.Columns {
		known[c] = struct{}{}
	}
	var errs []FieldError
	for k := range values {
		if _, ok := known[k]; !ok {
			errs = append(errs, ferr(ErrUnknownField, k, "Field '"+k+"' is not a column of "+td.Endpoint))
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []FieldError) int {
	for _, e := range errs {
		if e.Code == ErrNotFound {
			return http.StatusNotFound
		}
	}
	return http.StatusBadRequest
}

package view

import (
	"encoding/json"
	"strconv"
	"strings"

	"portal/internal/backend"
)

type FieldKind string

const (
	FieldText FieldKind = "text"
	FieldBool FieldKind = "bool" // трёхпозиционный select: unset/true/false
)

// значения трёхпозиционного селектора
const (
	BoolUnset = ""
	BoolTrue  = "true"
	BoolFalse = "false"
)

var boolOptions = []string{BoolUnset, BoolTrue, BoolFalse}

type FormField struct {
	Name    string    `json:"name"`
	Kind    FieldKind `json:"kind"`
	Value   string    `json:"value"`
	Options []string  `json:"options,omitempty"`
}

// BuildForm: по полю на колонку, в порядке колонок.
// bool только если текущее или исходное значение строго true/false,
// всё остальное (числа, даты, enum): свободный текст.
func BuildForm(columns []string, current, original backend.Record) []FormField {
	out := make([]FormField, 0, len(columns))
	for _, col := range columns {
		f := FormField{Name: col, Kind: FieldText}
		cur, hasCur := current[col]
		orig, hasOrig := original[col]
		_, curBool := cur.(bool)
		_, origBool := orig.(bool)
		if (hasCur && curBool) || (hasOrig && origBool) {
			f.Kind = FieldBool
			f.Options = append([]string(nil), boolOptions...)
		}
		switch {
		case hasCur:
			f.Value = Stringify(cur)
		case hasOrig:
			f.Value = Stringify(orig)
		}
		if f.Kind == FieldBool && f.Value != BoolTrue && f.Value != BoolFalse {
			f.Value = BoolUnset
		}
		out = append(out, f)
	}
	return out
}

// ParseForm собирает тело запроса из отправленных строк.
// bool "" не отправляется вовсе, text уходит строкой как есть.
func ParseForm(fields []FormField, submitted map[string]string) backend.Record {
	rec := backend.Record{}
	for _, f := range fields {
		v, ok := submitted[f.Name]
		if !ok {
			v = f.Value
		}
		if f.Kind == FieldBool {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case BoolTrue, "yes", "1":
				rec[f.Name] = true
			case BoolFalse, "no", "0":
				rec[f.Name] = false
			}
			continue
		}
		rec[f.Name] = v
	}
	return rec
}

// Stringify: отображение значения ячейки
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

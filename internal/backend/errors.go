package backend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

type Kind int

const (
	KindTransport Kind = iota + 1 // сеть, таймаут, отмена
	KindStatus                    // non-2xx без внятного тела
	KindMalformed                 // не-JSON или неожиданная форма
	KindRejected                  // бизнес-отказ с JSON-пэйлоадом
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error: единый тип ошибки клиента
type Error struct {
	Kind    Kind
	Method  string
	URL     string
	Status  int
	Message string
	Payload any
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.URL, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind проверяет вид ошибки по цепочке
func IsKind(err error, k Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == k
}

// Message превращает любую ошибку в строку для баннера.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if !errors.As(err, &be) {
		return err.Error()
	}
	if be.Message != "" {
		return be.Message
	}
	switch be.Kind {
	case KindTransport:
		if be.Err != nil {
			return "Network error: " + be.Err.Error()
		}
		return "Network error"
	case KindMalformed:
		return "Unexpected response from server"
	default:
		if be.Status != 0 {
			return fmt.Sprintf("Request failed with status %d", be.Status)
		}
		return "Request failed"
	}
}

// extractMessage достаёт человекочитаемое сообщение из JSON-ошибки сервера
// вместо того, чтобы показывать весь пэйлоад.
func extractMessage(payload any) string {
	switch t := payload.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := extractMessage(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if f, ok := t["field"].(string); ok && f != "" {
			if m := extractMessage(t["message"]); m != "" {
				return f + ": " + m
			}
		}
		for _, k := range []string{"detail", "error", "message", "non_field_errors"} {
			if v, ok := t[k]; ok {
				if s := extractMessage(v); s != "" {
					return s
				}
			}
		}
		// {"errors":[{"field":..,"message":..}]}
		if v, ok := t["errors"]; ok {
			if s := extractMessage(v); s != "" {
				return s
			}
		}
		// ошибки по полям: {"email": ["already taken"]}
		keys := make([]string, 0, len(t))
		for k := range t {
			if k == "success" || k == "code" || k == "field" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := extractMessage(t[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

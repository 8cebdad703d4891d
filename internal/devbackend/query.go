package devbackend

import (
	"cmp"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type sortKey struct {
	Field string
	Desc  bool
}

// parseOrdering("-scheduled_date,project") в духе ?ordering= у DRF
func parseOrdering(v string) []sortKey {
	var keys []sortKey
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(p, "-") {
			desc = true
			p = strings.TrimPrefix(p, "-")
		} else {
			p = strings.TrimPrefix(p, "+")
		}
		if p != "" {
			keys = append(keys, sortKey{Field: p, Desc: desc})
		}
	}
	return keys
}

// сравнение по одному ключу; null всегда в конце
func cmpByKey(a, b *Record, key string, desc bool) int {
	va, oka := valueOf(a, key)
	vb, okb := valueOf(b, key)
	na, nb := !oka || va == nil, !okb || vb == nil
	if na && nb {
		return 0
	}
	if na != nb {
		if na {
			return +1
		}
		return -1
	}
	rel := cmpValues(va, vb)
	if desc {
		rel = -rel
	}
	return rel
}

// числа сравниваются как числа, bool: false < true, остальное строкой
func cmpValues(a, b any) int {
	fa, okA := toNumber(a)
	fb, okB := toNumber(b)
	if okA && okB {
		return cmp.Compare(fa, fb)
	}
	ba, okA := a.(bool)
	bb, okB := b.(bool)
	if okA && okB {
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return +1
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func valueOf(r *Record, key string) (any, bool) {
	switch key {
	case "id":
		return r.ID, true
	case "created_at":
		return r.CreatedAt.Format("2006-01-02T15:04:05.000000000Z07:00"), true
	case "updated_at":
		return r.UpdatedAt.Format("2006-01-02T15:04:05.000000000Z07:00"), true
	}
	v, ok := r.Data[key]
	return v, ok
}

func sortRecords(records []*Record, keys []sortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(records[i], records[j], k.Field, k.Desc); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

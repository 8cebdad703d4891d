package dashboard

import (
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"
)

var ErrLengthMismatch = errors.New("values and weights differ in length")

func Sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Average пустого ряда: 0
func Average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// WeightedProductivity = Σ(value·weight) / Σweight
func WeightedProductivity(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, ErrLengthMismatch
	}
	var num, den float64
	for i := range values {
		num += values[i] * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

type KPIStatus string

const (
	KPIGood     KPIStatus = "good"
	KPIWarning  KPIStatus = "warning"
	KPICritical KPIStatus = "critical"
)

const DefaultWarnRatio = 0.8

// StatusFor: good при value >= target, warning при value >= target*warnRatio
func StatusFor(value, target, warnRatio float64) KPIStatus {
	if warnRatio <= 0 || warnRatio > 1 {
		warnRatio = DefaultWarnRatio
	}
	switch {
	case value >= target:
		return KPIGood
	case value >= target*warnRatio:
		return KPIWarning
	default:
		return KPICritical
	}
}

// Series достаёт числа из ответа агрегата:
// [1, 2], {"values": [...]}, [{"value": 1}, ...]
func Series(data any) []float64 {
	return SeriesOf(data, "value")
}

// SeriesOf: то же, но для объектов берётся поле key
func SeriesOf(data any, key string) []float64 {
	switch t := data.(type) {
	case []any:
		out := make([]float64, 0, len(t))
		for _, it := range t {
			if obj, ok := it.(map[string]any); ok {
				if f, ok := ToFloat(obj[key]); ok {
					out = append(out, f)
				}
				continue
			}
			// голые числа: это сами значения, не веса
			if key != "value" {
				continue
			}
			if f, ok := ToFloat(it); ok {
				out = append(out, f)
			}
		}
		return out
	case map[string]any:
		if vals, ok := t["values"]; ok {
			return SeriesOf(vals, key)
		}
	}
	return nil
}

// weightedPairs берёт value и weight из одного и того же объекта;
// объект без любого из двух полей во взвешенное среднее не входит
func weightedPairs(data any) (values, weights []float64) {
	switch t := data.(type) {
	case []any:
		for _, it := range t {
			obj, ok := it.(map[string]any)
			if !ok {
				continue
			}
			v, okV := ToFloat(obj["value"])
			w, okW := ToFloat(obj["weight"])
			if okV && okW {
				values = append(values, v)
				weights = append(weights, w)
			}
		}
	case map[string]any:
		if vals, ok := t["values"]; ok {
			return weightedPairs(vals)
		}
	}
	return values, weights
}

func ToFloat(v any) (float64, bool) {
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
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// Summary: производные величины, которые показывают карточки
type Summary struct {
	Sum      float64   `json:"sum"`
	Average  float64   `json:"average"`
	Weighted *float64  `json:"weighted,omitempty"`
	KPI      KPIStatus `json:"kpi,omitempty"`
	Count    int       `json:"count"`
}

// Summarize считает сумму/среднее, взвешенное среднее при наличии weight
// и KPI-статус для {"value", "target"}.
func Summarize(data any) Summary {
	vals := Series(data)
	s := Summary{Sum: Sum(vals), Average: Average(vals), Count: len(vals)}
	if pv, pw := weightedPairs(data); len(pv) > 0 {
		if w, err := WeightedProductivity(pv, pw); err == nil {
			s.Weighted = &w
		}
	}
	if obj, ok := data.(map[string]any); ok {
		val, okV := ToFloat(obj["value"])
		target, okT := ToFloat(obj["target"])
		if okV && okT {
			s.KPI = StatusFor(val, target, DefaultWarnRatio)
			s.Sum, s.Average, s.Count = val, val, 1
		}
	}
	return s
}

package api

import (
	"net/url"
	"strconv"
	"strings"

	"portal/internal/view"
)

// ==== параметры страницы ====

type PageParams struct {
	Number int // с нуля
	Size   int
}

// parsePageParams: page/size (или _page/_size). Номер страницы с нуля,
// размер вне {5,10,25} заменяется на размер по умолчанию.
func parsePageParams(q url.Values) PageParams {
	p := PageParams{Number: 0, Size: view.DefaultPageSize}

	pv := first(q, "_page", "page")
	if n, err := strconv.Atoi(pv); err == nil && n >= 0 {
		p.Number = n
	}
	sv := first(q, "_size", "size")
	if n, err := strconv.Atoi(sv); err == nil {
		p.Size = view.ValidPageSize(n)
	}
	return p
}

func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func parseBoolParam(q url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

package view

import "portal/internal/backend"

// PageSizes: допустимые размеры страницы
var PageSizes = []int{5, 10, 25}

const DefaultPageSize = 10

type Page struct {
	Number int              `json:"number"` // с нуля
	Size   int              `json:"size"`
	Total  int              `json:"total"`
	Pages  int              `json:"pages"`
	Rows   []backend.Record `json:"rows"`
}

// ValidPageSize: размер вне набора -> DefaultPageSize
func ValidPageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return DefaultPageSize
}

// Paginate режет уже загруженную коллекцию; номер страницы зажимается в [0, pages-1].
func Paginate(rows []backend.Record, number, size int) Page {
	size = ValidPageSize(size)
	total := len(rows)
	pages := (total + size - 1) / size
	if number < 0 {
		number = 0
	}
	if pages > 0 && number > pages-1 {
		number = pages - 1
	}
	if pages == 0 {
		number = 0
	}
	start := number * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Number: number,
		Size:   size,
		Total:  total,
		Pages:  pages,
		Rows:   rows[start:end],
	}
}

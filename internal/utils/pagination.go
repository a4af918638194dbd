// Package utils holds small helpers shared by the HTTP and service layers:
// page arithmetic and the CJK/emoji text helpers of the two games.
package utils

import "strconv"

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request with a bounded size.
type Page struct {
	Number int
	Size   int
}

// NewPage bounds number to >= 1 and size to 1..MaxPageSize; a non-positive
// size selects DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// ParsePage reads query values. Missing or malformed values use the
// defaults; explicit values below 1 are raised to 1.
func ParsePage(number, size string) Page {
	n := atoiDefault(number, 1)
	s := atoiDefault(size, DefaultPageSize)
	if s < 1 {
		s = 1
	}
	return NewPage(n, s)
}

// Offset is the number of rows before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is the page count for total rows.
func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

package utils

import "testing"

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size string
		want       Page
	}{
		{"", "", Page{1, DefaultPageSize}},
		{"3", "10", Page{3, 10}},
		{"0", "0", Page{1, 1}},
		{"-4", "-1", Page{1, 1}},
		{"x", " 42", Page{1, DefaultPageSize}},
		{"2", "500", Page{2, MaxPageSize}},
		{"999999999999999999999999", "5", Page{1, 5}},
	}
	for _, tc := range cases {
		if got := ParsePage(tc.page, tc.size); got != tc.want {
			t.Fatalf("ParsePage(%q, %q) = %+v; want %+v", tc.page, tc.size, got, tc.want)
		}
	}
}

func TestNewPage_NonPositiveSizeUsesDefault(t *testing.T) {
	if got := NewPage(0, 0); got != (Page{1, DefaultPageSize}) {
		t.Fatalf("NewPage(0,0) = %+v", got)
	}
}

func TestPage_OffsetAndTotalPages(t *testing.T) {
	p := NewPage(3, 20)
	if p.Offset() != 40 {
		t.Fatalf("offset = %d", p.Offset())
	}
	for total, want := range map[int64]int{0: 0, 1: 1, 20: 1, 21: 2, 41: 3} {
		if got := p.TotalPages(total); got != want {
			t.Fatalf("TotalPages(%d) = %d; want %d", total, got, want)
		}
	}
}

package utils

import (
	"reflect"
	"testing"
)

func TestFirstEmoji(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"💨", "💨"},
		{"steam 💨🔥", "💨"},
		{"⚙️ gear", "⚙️"},
		{"⭐", "⭐"},
		{"🇨🇳 flag", "🇨🇳"},
		{"👨‍👩‍👧 family", "👨‍👩‍👧"},
		{"no emoji here", ""},
		{"蒸汽", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FirstEmoji(tc.in); got != tc.want {
			t.Errorf("FirstEmoji(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskText_KeepsCJKPunctuationAndFullWidth(t *testing.T) {
	got := MaskText("苹果，是一种水果。A1（红）")
	want := "■■，■■■■■。■■（■）"
	if got != want {
		t.Fatalf("MaskText = %q, want %q", got, want)
	}
}

func TestRunePositions_UsesRuneIndices(t *testing.T) {
	if got := RunePositions("a苹果苹", "苹"); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("got %v", got)
	}
	if got := RunePositions("abc", "z"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := RunePositions("abc", "ab"); len(got) != 0 {
		t.Fatalf("multi-rune needle must not match, got %v", got)
	}
}

func TestCJKHelpers(t *testing.T) {
	if !IsCJK('苹') || IsCJK('a') || IsCJK('，') {
		t.Fatalf("IsCJK misclassified")
	}
	// The first run wins; labels in front of the term are not skipped.
	for _, tc := range [][2]string{
		{"苹果。", "苹果"},
		{"答案：苹果。", "答案"},
		{"Term: 蒸汽机", "蒸汽机"},
	} {
		if got := FirstCJKRun(tc[0]); got != tc[1] {
			t.Fatalf("FirstCJKRun(%q) = %q, want %q", tc[0], got, tc[1])
		}
	}
	if got := FirstCJKRun("apple"); got != "" {
		t.Fatalf("FirstCJKRun = %q", got)
	}
	if got := DistinctCJK("苹果(苹)"); !reflect.DeepEqual(got, []string{"苹", "果"}) {
		t.Fatalf("DistinctCJK = %v", got)
	}
}

func TestIsSingleRune(t *testing.T) {
	for in, want := range map[string]bool{"苹": true, "a": true, "": false, "ab": false, "苹果": false} {
		if got := IsSingleRune(in); got != want {
			t.Errorf("IsSingleRune(%q) = %v", in, got)
		}
	}
}

func TestNormalizeName_AndTitle(t *testing.T) {
	if got := NormalizeName("  hot   spring \n"); got != "hot spring" {
		t.Fatalf("NormalizeName = %q", got)
	}
	// "e" + combining acute -> precomposed
	if got := NormalizeName("cafe\u0301"); got != "caf\u00e9" {
		t.Fatalf("NormalizeName NFC = %q", got)
	}
	if got := TitleEnglish("hot spring of iOS"); got != "Hot Spring Of IOS" {
		t.Fatalf("TitleEnglish = %q", got)
	}
}

package utils

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaskRune replaces hidden characters in masked guess-game text.
const MaskRune = '■'

// IsCJK reports whether r is a common CJK unified ideograph (U+4E00..U+9FFF).
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// FirstCJKRun returns the first maximal run of CJK ideographs in s, or "".
func FirstCJKRun(s string) string {
	start := -1
	for i, r := range s {
		switch {
		case IsCJK(r) && start < 0:
			start = i
		case !IsCJK(r) && start >= 0:
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

// DistinctCJK returns the distinct CJK ideographs of s in first-seen order.
func DistinctCJK(s string) []string {
	seen := make(map[rune]struct{})
	var out []string
	for _, r := range s {
		if !IsCJK(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, string(r))
	}
	return out
}

// isMaskExempt reports whether r stays visible in masked text: CJK
// punctuation (U+3000..U+303F) and full-width forms (U+FF00..U+FFEF).
func isMaskExempt(r rune) bool {
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}

// MaskText hides every rune of s except CJK punctuation and full-width forms.
func MaskText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isMaskExempt(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(MaskRune)
		}
	}
	return b.String()
}

// RunePositions returns the rune indices at which ch occurs in s. The result
// is never nil.
func RunePositions(s, ch string) []int {
	out := []int{}
	target := []rune(ch)
	if len(target) != 1 {
		return out
	}
	i := 0
	for _, r := range s {
		if r == target[0] {
			out = append(out, i)
		}
		i++
	}
	return out
}

// IsSingleRune reports whether s is exactly one Unicode code point.
func IsSingleRune(s string) bool {
	n := 0
	for range s {
		n++
		if n > 1 {
			return false
		}
	}
	return n == 1
}

// NormalizeName trims s, collapses inner whitespace and applies NFC.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// TitleEnglish upper-cases the first letter of each word, leaving the rest.
func TitleEnglish(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// FirstEmoji returns the first emoji grapheme cluster found in s, or "".
// Keycap sequences and flags are kept whole.
func FirstEmoji(s string) string {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		if isEmojiCluster(g.Runes()) {
			return cluster
		}
	}
	return ""
}

func isEmojiCluster(rs []rune) bool {
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs[1:] {
		// variation selector-16 or combining enclosing keycap
		if r == 0xFE0F || r == 0x20E3 {
			return true
		}
	}
	return isEmojiRune(rs[0])
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, flags
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2300 && r <= 0x23FF: // misc technical (⌚, ⏰)
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // arrows, ⭐
		return true
	case r == 0x00A9 || r == 0x00AE || r == 0x203C || r == 0x2049 || r == 0x2122 || r == 0x2139:
		return true
	}
	return false
}

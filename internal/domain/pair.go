package domain

// LanguageMode selects which element name variants are active and compared
// for uniqueness.
type LanguageMode string

const (
	LanguageBoth LanguageMode = "both"
	LanguageCN   LanguageMode = "cn"
	LanguageEN   LanguageMode = "en"
)

// ParseLanguageMode maps a config value to a LanguageMode. Unknown values
// fall back to LanguageBoth with ok=false.
func ParseLanguageMode(s string) (LanguageMode, bool) {
	switch LanguageMode(s) {
	case LanguageBoth, LanguageCN, LanguageEN:
		return LanguageMode(s), true
	case "zh":
		return LanguageCN, true
	}
	return LanguageBoth, false
}

// UsesCN reports whether the Chinese name is active.
func (m LanguageMode) UsesCN() bool { return m != LanguageEN }

// UsesEN reports whether the English name is active.
func (m LanguageMode) UsesEN() bool { return m != LanguageCN }

// Pair is an ordered pair of element ids as stored in the craft cache.
type Pair struct {
	First  string
	Second string
}

// NewPair canonicalizes (a, b). When order does not matter the ids are
// sorted lexicographically so (a, b) and (b, a) share one cache key.
func NewPair(a, b string, orderMatters bool) Pair {
	if !orderMatters && a > b {
		a, b = b, a
	}
	return Pair{First: a, Second: b}
}

// Key is a stable string form used for in-process coalescing.
func (p Pair) Key() string { return p.First + "\x00" + p.Second }

// Reversed returns the pair with swapped members.
func (p Pair) Reversed() Pair { return Pair{First: p.Second, Second: p.First} }

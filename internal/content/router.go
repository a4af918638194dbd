package content

import "strings"

// Router chooses the source for a seed: seeds with the special prefix use
// Special (a source that picks its own topic), all others use Default.
type Router struct {
	Prefix  string
	Special Fetcher
	Default Fetcher
}

// IsSpecial reports whether seed selects the special source.
func (r Router) IsSpecial(seed string) bool {
	return r.Prefix != "" && r.Special != nil && strings.HasPrefix(seed, r.Prefix)
}

// For returns the fetcher for seed.
func (r Router) For(seed string) Fetcher {
	if r.IsSpecial(seed) {
		return r.Special
	}
	return r.Default
}

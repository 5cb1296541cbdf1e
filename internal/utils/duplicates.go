package utils

// SeenFilter drops repeated values, keeping the first occurrence.
type SeenFilter struct {
	seen map[string]struct{}
}

// NewSeenFilter creates a filter sized for n values.
func NewSeenFilter(n int) *SeenFilter {
	return &SeenFilter{seen: make(map[string]struct{}, n)}
}

// ShouldInclude returns true the first time s is offered and false afterwards.
func (f *SeenFilter) ShouldInclude(s string) bool {
	if _, ok := f.seen[s]; ok {
		return false
	}
	f.seen[s] = struct{}{}
	return true
}

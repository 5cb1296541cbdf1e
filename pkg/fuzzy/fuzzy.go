/*
Package fuzzy expands an input code into the codes that sound alike under
a set of confusion groups such as {z, zh} or {an, ang}.

The code is cut into spans left to right: at each position the longest group
member found there becomes a span and scanning resumes after it. Every subset
of spans, up to one span per configured group, is then replaced at once by
every choice of alternative member. With the default groups:

	zi   -> zi zhi
	zhan -> zhan zan zang zhang
	nan  -> nan lan lang nang

The original code always comes first; the rest are sorted.
*/
package fuzzy

import (
	"sort"
	"strings"

	"github.com/bastiangx/fqwb/internal/utils"
)

// Rule is a group of interchangeable code fragments.
type Rule []string

// Toggle reads and writes the fuzzy sound switch.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(bool)
}

// ParseRules cleans configured groups: members are trimmed and lower-cased,
// invalid and repeated members dropped, and groups left with fewer than two
// members discarded.
func ParseRules(groups [][]string) []Rule {
	rules := make([]Rule, 0, len(groups))
	for _, g := range groups {
		seen := utils.NewSeenFilter(len(g))
		var rule Rule
		for _, m := range g {
			m = strings.ToLower(strings.TrimSpace(m))
			if !utils.IsValidCode(m) || !seen.ShouldInclude(m) {
				continue
			}
			rule = append(rule, m)
		}
		if len(rule) >= 2 {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Expander applies a fixed rule set. It is read-only after construction.
type Expander struct {
	rules   []Rule
	members []string            // longest first
	alts    map[string][]string // member -> sorted alternatives
	toggle  Toggle
}

// NewExpander builds an expander over rules. toggle may be nil, in which
// case the expander reports itself disabled.
func NewExpander(rules []Rule, toggle Toggle) *Expander {
	e := &Expander{
		rules:  rules,
		alts:   make(map[string][]string),
		toggle: toggle,
	}

	altSets := make(map[string]map[string]struct{})
	for _, r := range rules {
		for _, m := range r {
			set, ok := altSets[m]
			if !ok {
				set = make(map[string]struct{})
				altSets[m] = set
			}
			for _, other := range r {
				if other != m {
					set[other] = struct{}{}
				}
			}
		}
	}
	for m, set := range altSets {
		e.members = append(e.members, m)
		alts := make([]string, 0, len(set))
		for a := range set {
			alts = append(alts, a)
		}
		sort.Strings(alts)
		e.alts[m] = alts
	}
	sort.Slice(e.members, func(i, j int) bool {
		if len(e.members[i]) != len(e.members[j]) {
			return len(e.members[i]) > len(e.members[j])
		}
		return e.members[i] < e.members[j]
	})
	return e
}

// Rules returns the rule groups in use.
func (e *Expander) Rules() []Rule {
	return e.rules
}

// IsEnabled reports the current fuzzy sound setting.
func (e *Expander) IsEnabled() bool {
	if e.toggle == nil {
		return false
	}
	return e.toggle.IsEnabled()
}

// SetEnabled changes the fuzzy sound setting.
func (e *Expander) SetEnabled(enabled bool) {
	if e.toggle != nil {
		e.toggle.SetEnabled(enabled)
	}
}

type span struct {
	start, end int
	alts       []string
}

// spans cuts code into non-overlapping rule member matches.
func (e *Expander) spans(code string) []span {
	var out []span
	for i := 0; i < len(code); {
		matched := ""
		for _, m := range e.members {
			if strings.HasPrefix(code[i:], m) {
				matched = m
				break
			}
		}
		if matched == "" {
			i++
			continue
		}
		out = append(out, span{start: i, end: i + len(matched), alts: e.alts[matched]})
		i += len(matched)
	}
	return out
}

// Expand returns code followed by every fuzzy variant in sorted order.
// Disabled, it returns exactly [code].
func (e *Expander) Expand(code string, enabled bool) []string {
	return e.ExpandKnown(code, enabled, nil)
}

// ExpandKnown is Expand restricted to variants for which known reports every
// fixed prefix as present, so a branch dies as soon as no code can start
// with it. The work is bounded by the prefixes known accepts instead of the
// number of span combinations. code itself is always returned first. A nil
// known accepts everything.
func (e *Expander) ExpandKnown(code string, enabled bool, known func(prefix string) bool) []string {
	if !enabled || code == "" || len(e.rules) == 0 {
		return []string{code}
	}

	spans := e.spans(code)
	if len(spans) == 0 {
		return []string{code}
	}

	variants := make(map[string]struct{})
	var walk func(idx, applied int, prefix string, last int)
	walk = func(idx, applied int, prefix string, last int) {
		if idx == len(spans) {
			v := prefix + code[last:]
			if known == nil || known(v) {
				variants[v] = struct{}{}
			}
			return
		}
		sp := spans[idx]
		head := prefix + code[last:sp.start]
		if known != nil && head != "" && !known(head) {
			return
		}
		walk(idx+1, applied, prefix, last)
		if applied >= len(e.rules) {
			return
		}
		for _, alt := range sp.alts {
			walk(idx+1, applied+1, head+alt, sp.end)
		}
	}
	walk(0, 0, "", 0)

	delete(variants, code)
	out := make([]string, 0, len(variants)+1)
	for v := range variants {
		out = append(out, v)
	}
	sort.Strings(out)
	return append([]string{code}, out...)
}

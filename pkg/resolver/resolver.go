// Package resolver turns an input code into the ranked candidate list shown
// to the user.
//
// Resolution is a pure pipeline over one snapshot of its inputs:
//
//	expand -> order codes -> lookup each -> dedup -> rank by history
//
// Config is read on every call, so toggling fuzzy sound or history applies
// to the next resolution.
package resolver

import (
	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/bastiangx/fqwb/pkg/dictionary"
)

// Dictionaries yields the active dictionary snapshot; nil when none is active.
type Dictionaries interface {
	Active() *dictionary.Dictionary
}

// Expander produces the codes searched for one input code. known limits the
// variants to prefixes of codes the dictionary holds.
type Expander interface {
	ExpandKnown(code string, enabled bool, known func(prefix string) bool) []string
}

// Usage provides and records selection counts.
type Usage interface {
	Counts(code string) map[string]int
	Record(code, candidate string) error
}

// Settings yields the current engine configuration.
type Settings interface {
	Get() config.EngineConfig
}

// Resolver orchestrates dictionary, fuzzy expansion and history.
type Resolver struct {
	dicts    Dictionaries
	expander Expander
	usage    Usage
	settings Settings
}

// New wires a resolver. usage may be nil when history is unavailable.
func New(dicts Dictionaries, expander Expander, usage Usage, settings Settings) *Resolver {
	return &Resolver{
		dicts:    dicts,
		expander: expander,
		usage:    usage,
		settings: settings,
	}
}

// Resolve returns every candidate for code, best first. It never fails; no
// match yields an empty slice.
func (r *Resolver) Resolve(code string) []string {
	if code == "" {
		return []string{}
	}
	cfg := r.settings.Get()
	dict := r.dicts.Active()
	if dict == nil {
		return []string{}
	}

	codes := []string{code}
	if r.expander != nil {
		codes = r.expander.ExpandKnown(code, cfg.FuzzySoundEnabled, dict.HasPrefix)
	}

	cands := Dedup(Gather(OrderCodes(code, codes), dict.Lookup))
	if cfg.HistoryEnabled && r.usage != nil {
		cands = Rank(cands, r.usage.Counts(code))
	}
	return cands
}

// Commit records that candidate was chosen for code when history is on.
func (r *Resolver) Commit(code, candidate string) error {
	if r.usage == nil || !r.settings.Get().HistoryEnabled {
		return nil
	}
	return r.usage.Record(code, candidate)
}

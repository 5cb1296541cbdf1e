/*
Package dictionary loads code-to-candidates tables and keeps the one active
dictionary the engine resolves against.

A dictionary file maps each code to an ordered candidate list:

	# -*- coding: utf-8 -*-
	wang 王 汪
	wang 往
	zhi 之

Repeated code lines append in file order, so the declared order above gives
wang -> [王 汪 往]. Files named <name>.dic or <name>.txt in the data dir are
text tables; <name>.bin files are the same table compiled with msgpack.

Loading is all-or-nothing: one malformed record rejects the whole file with a
*LoadError. Loaded dictionaries are immutable; Store.Activate swaps the active
reference, and a failed switch leaves the previous dictionary in place.
*/
package dictionary

import (
	"fmt"
	"sort"

	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Entry is one code with its candidates in declared priority order.
type Entry struct {
	Code       string   `msgpack:"c"`
	Candidates []string `msgpack:"w"`
}

// Dictionary is an immutable code index.
type Dictionary struct {
	name  string
	path  string
	index *patricia.Trie
	order []string
	words int
}

// builder accumulates entries in declaration order before indexing.
type builder struct {
	entries map[string][]string
	seen    map[string]map[string]struct{}
	order   []string
}

func newBuilder() *builder {
	return &builder{
		entries: make(map[string][]string),
		seen:    make(map[string]map[string]struct{}),
	}
}

// add appends candidates to code; a candidate already declared for code keeps
// its first position.
func (b *builder) add(code string, candidates []string) {
	set, ok := b.seen[code]
	if !ok {
		set = make(map[string]struct{}, len(candidates))
		b.seen[code] = set
		b.order = append(b.order, code)
	}
	for _, c := range candidates {
		if _, dup := set[c]; dup {
			continue
		}
		set[c] = struct{}{}
		b.entries[code] = append(b.entries[code], c)
	}
}

func (b *builder) build(name, path string) *Dictionary {
	d := &Dictionary{
		name:  name,
		path:  path,
		index: patricia.NewTrie(),
		order: b.order,
	}
	for _, code := range b.order {
		cands := b.entries[code]
		d.index.Insert(patricia.Prefix(code), cands)
		d.words += len(cands)
	}
	return d
}

// FromEntries builds a dictionary from entries, validating them the same way
// Load validates file records.
func FromEntries(name string, entries []Entry) (*Dictionary, error) {
	b := newBuilder()
	for i, e := range entries {
		if err := validateRecord(e.Code, e.Candidates); err != nil {
			return nil, &LoadError{Name: name, Line: i + 1, Err: err}
		}
		b.add(e.Code, e.Candidates)
	}
	if len(b.order) == 0 {
		return nil, &LoadError{Name: name, Err: ErrEmpty}
	}
	return b.build(name, ""), nil
}

func validateRecord(code string, candidates []string) error {
	if code == "" {
		return fmt.Errorf("%w: empty code", ErrMalformed)
	}
	if !utils.IsValidCode(code) {
		return fmt.Errorf("%w: invalid code %q", ErrMalformed, code)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: code %q has no candidates", ErrMalformed, code)
	}
	for _, c := range candidates {
		if c == "" {
			return fmt.Errorf("%w: code %q has an empty candidate", ErrMalformed, code)
		}
	}
	return nil
}

// Name returns the dictionary's unique name.
func (d *Dictionary) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Path returns the file the dictionary was loaded from, if any.
func (d *Dictionary) Path() string {
	if d == nil {
		return ""
	}
	return d.path
}

// Len returns the number of codes.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

// WordCount returns the number of (code, candidate) pairs.
func (d *Dictionary) WordCount() int {
	if d == nil {
		return 0
	}
	return d.words
}

// Lookup returns the candidates of code in declared order, or nil when the
// code is absent. A nil dictionary has no entries.
func (d *Dictionary) Lookup(code string) []string {
	if d == nil || code == "" {
		return nil
	}
	item := d.index.Get(patricia.Prefix(code))
	if item == nil {
		return nil
	}
	cands := item.([]string)
	out := make([]string, len(cands))
	copy(out, cands)
	return out
}

// HasPrefix reports whether any code starts with prefix.
func (d *Dictionary) HasPrefix(prefix string) bool {
	if d == nil {
		return false
	}
	return d.index.MatchSubtree(patricia.Prefix(prefix))
}

// Complete returns up to limit codes that start with prefix, sorted.
// limit <= 0 returns all of them.
func (d *Dictionary) Complete(prefix string, limit int) []string {
	if d == nil || prefix == "" {
		return nil
	}
	var codes []string
	_ = d.index.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		codes = append(codes, string(p))
		return nil
	})
	sort.Strings(codes)
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	return codes
}

// Entries returns every entry in declaration order.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	entries := make([]Entry, 0, len(d.order))
	for _, code := range d.order {
		entries = append(entries, Entry{Code: code, Candidates: d.Lookup(code)})
	}
	return entries
}

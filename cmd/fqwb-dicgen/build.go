package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/bastiangx/fqwb/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/mozillazg/go-pinyin"
)

// word is one line of the input list.
type word struct {
	text  string
	freq  int
	order int
}

// readWords parses "word [frequency]" lines. Lines starting with # are skipped.
func readWords(r io.Reader) ([]word, error) {
	var words []word
	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		w := word{text: fields[0], order: len(words)}
		if len(fields) > 1 {
			freq, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad frequency %q: %w", lineNo, fields[1], err)
			}
			w.freq = freq
		}
		words = append(words, w)
	}
	return words, s.Err()
}

// codesFor returns the full pinyin code of text and, with initials, the
// abbreviation made of each syllable's first letter. ok is false when a
// character has no reading.
func codesFor(text string, args pinyin.Args, initials bool) (codes []string, ok bool) {
	syllables := pinyin.LazyPinyin(text, args)
	if len(syllables) == 0 || len(syllables) != utf8.RuneCountInString(text) {
		return nil, false
	}
	full := strings.Join(syllables, "")
	if !utils.IsValidCode(full) {
		return nil, false
	}
	codes = append(codes, full)
	if initials && len(syllables) > 1 {
		var b strings.Builder
		for _, s := range syllables {
			b.WriteByte(s[0])
		}
		if abbr := b.String(); abbr != full {
			codes = append(codes, abbr)
		}
	}
	return codes, true
}

// buildEntries groups words by code. Within a code, higher frequency comes
// first and list order breaks ties; codes keep first-seen order.
func buildEntries(words []word, initials bool) []dictionary.Entry {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal

	grouped := make(map[string][]word)
	var order []string
	skipped := 0
	for _, w := range words {
		codes, ok := codesFor(w.text, args, initials)
		if !ok {
			skipped++
			log.Debugf("Skipping %q: no pinyin reading", w.text)
			continue
		}
		for _, code := range codes {
			if _, seen := grouped[code]; !seen {
				order = append(order, code)
			}
			grouped[code] = append(grouped[code], w)
		}
	}
	if skipped > 0 {
		log.Warnf("Skipped %d words without a pinyin reading", skipped)
	}

	entries := make([]dictionary.Entry, 0, len(order))
	for _, code := range order {
		ws := grouped[code]
		sort.SliceStable(ws, func(i, j int) bool {
			if ws[i].freq != ws[j].freq {
				return ws[i].freq > ws[j].freq
			}
			return ws[i].order < ws[j].order
		})
		cands := make([]string, len(ws))
		for i, w := range ws {
			cands[i] = w.text
		}
		entries = append(entries, dictionary.Entry{Code: code, Candidates: cands})
	}
	return entries
}

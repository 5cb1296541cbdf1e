package resolver

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/bastiangx/fqwb/pkg/dictionary"
	"github.com/bastiangx/fqwb/pkg/fuzzy"
	"github.com/bastiangx/fqwb/pkg/history"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var benchCodes = []string{
	"zi", "zhi", "ci", "chi", "si", "shi",
	"nan", "lan", "fang", "hang", "zhang", "zang",
	"ren", "reng", "xin", "xing", "wang", "wan",
	"zhongguo", "shangchang", "a", "ai", "xyz",
}

// benchEntries builds a synthetic table where every code and its fuzzy
// neighbours carry several candidates.
func benchEntries() []dictionary.Entry {
	exp := fuzzy.NewExpander(fuzzy.ParseRules(config.DefaultFuzzyRules()), nil)
	seen := make(map[string]bool)
	var entries []dictionary.Entry
	for _, code := range benchCodes {
		for _, c := range exp.Expand(code, true) {
			if seen[c] {
				continue
			}
			seen[c] = true
			cands := make([]string, 12)
			for i := range cands {
				cands[i] = fmt.Sprintf("%s%d", c, i%8)
			}
			entries = append(entries, dictionary.Entry{Code: c, Candidates: cands})
		}
	}
	return entries
}

func benchResolver(tb testing.TB) (*Resolver, *history.Store) {
	d, err := dictionary.FromEntries("bench", benchEntries())
	require.NoError(tb, err)
	cfg := config.NewStore("")
	cfg.Update(func(c *config.EngineConfig) { c.FuzzySoundEnabled = true })
	exp := fuzzy.NewExpander(fuzzy.ParseRules(config.DefaultFuzzyRules()), cfg.FuzzySound())
	hist := history.New(nil, cfg.History())
	return New(staticDicts{d}, exp, hist, cfg), hist
}

func BenchmarkResolve(b *testing.B) {
	r, hist := benchResolver(b)
	for _, code := range benchCodes {
		_ = hist.Record(code, code+"3")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Resolve(benchCodes[i%len(benchCodes)])
	}
}

func TestConcurrentResolveAndCommit(t *testing.T) {
	r, hist := benchResolver(t)

	workers := []int{1, 2, 4, 8}
	for _, n := range workers {
		t.Run(fmt.Sprintf("workers_%d", n), func(t *testing.T) {
			var wg sync.WaitGroup
			for w := 0; w < n; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						code := benchCodes[(w+i)%len(benchCodes)]
						cands := r.Resolve(code)
						if len(cands) > 0 {
							_ = r.Commit(code, cands[len(cands)-1])
						}
					}
				}(w)
			}
			wg.Wait()
		})
	}

	for _, code := range benchCodes {
		cands := r.Resolve(code)
		counts := hist.Counts(code)
		for i := 1; i < len(cands); i++ {
			assert.GreaterOrEqual(t, counts[cands[i-1]], counts[cands[i]], "code %s", code)
		}
	}
}

func TestResolveMemoryIsStable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping memory stability test in short mode")
	}
	r, _ := benchResolver(t)

	var before, after runtime.MemStats
	for i := 0; i < 1000; i++ {
		r.Resolve(benchCodes[i%len(benchCodes)])
	}
	runtime.GC()
	runtime.ReadMemStats(&before)

	for i := 0; i < 20000; i++ {
		r.Resolve(benchCodes[i%len(benchCodes)])
	}
	runtime.GC()
	runtime.ReadMemStats(&after)

	growth := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	assert.Less(t, growth, int64(4<<20), "heap grew by %d bytes", growth)
}

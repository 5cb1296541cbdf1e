package fuzzy

import (
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultExpander() *Expander {
	return NewExpander(ParseRules(config.DefaultFuzzyRules()), nil)
}

func TestExpandDisabledIsIdentity(t *testing.T) {
	e := defaultExpander()
	for _, code := range []string{"zi", "zhang", "nan", "xyz", "a1"} {
		assert.Equal(t, []string{code}, e.Expand(code, false))
	}
}

func TestExpand(t *testing.T) {
	e := defaultExpander()

	tests := []struct {
		code string
		want []string
	}{
		{"zi", []string{"zi", "zhi"}},
		{"zhi", []string{"zhi", "zi"}},
		{"wang", []string{"wang", "wan"}},
		{"nan", []string{"nan", "lan", "lang", "nang"}},
		{"zhan", []string{"zhan", "zan", "zang", "zhang"}},
		{"hang", []string{"hang", "fan", "fang", "han"}},
		{"ning", []string{"ning", "lin", "ling", "nin"}},
		{"xyz", []string{"xyz", "xyzh"}},
		{"wo", []string{"wo"}},
		{"", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Expand(tt.code, true))
		})
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	e := defaultExpander()
	first := e.Expand("zhuangshen", true)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Expand("zhuangshen", true))
	}
	assert.Equal(t, "zhuangshen", first[0])
	assert.Contains(t, first, "zuangsen")
	assert.Contains(t, first, "zuansheng")
}

func TestExpandRespectsDepthBound(t *testing.T) {
	e := NewExpander([]Rule{{"a", "b"}}, nil)
	assert.Equal(t, []string{"aa", "ab", "ba"}, e.Expand("aa", true))

	two := NewExpander([]Rule{{"a", "b"}, {"x", "y"}}, nil)
	assert.Equal(t, []string{"aa", "ab", "ba", "bb"}, two.Expand("aa", true))
}

func TestMemberInSeveralGroups(t *testing.T) {
	e := NewExpander([]Rule{{"l", "n"}, {"n", "ng"}}, nil)
	// "ng" is the longest match at position 0, so "n" alone is not a span there.
	assert.Equal(t, []string{"ng", "n"}, e.Expand("ng", true))
	assert.Equal(t, []string{"n", "l", "ng"}, e.Expand("n", true))
}

// prefixesOf accepts any prefix of one of codes.
func prefixesOf(codes ...string) func(string) bool {
	return func(p string) bool {
		for _, c := range codes {
			if strings.HasPrefix(c, p) {
				return true
			}
		}
		return false
	}
}

func TestExpandKnownKeepsOnlyReachableCodes(t *testing.T) {
	e := defaultExpander()

	assert.Equal(t, []string{"zi", "zhi"}, e.ExpandKnown("zi", true, prefixesOf("zhi")))
	assert.Equal(t, []string{"nan", "lan", "lang"}, e.ExpandKnown("nan", true, prefixesOf("lang", "wang")))
	assert.Equal(t, []string{"nan"}, e.ExpandKnown("nan", true, prefixesOf()))
	assert.Equal(t, []string{"nan"}, e.ExpandKnown("nan", false, prefixesOf("lang")))
	assert.Equal(t, e.Expand("zhuang", true), e.ExpandKnown("zhuang", true, nil))
}

func TestExpandKnownLongCode(t *testing.T) {
	e := defaultExpander()
	code := strings.Repeat("zi", 40)
	target := strings.Repeat("zi", 39) + "zhi"

	start := time.Now()
	got := e.ExpandKnown(code, true, prefixesOf("zi", "zhi", target))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{code, target}, got)

	start = time.Now()
	got = e.ExpandKnown(strings.Repeat("zi", 500), true, prefixesOf("zi", "zhi"))
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, got, 1)
}

func TestParseRules(t *testing.T) {
	rules := ParseRules([][]string{
		{" Z ", "zh", "z"},
		{"only"},
		{"", "x-y", "q"},
		{"an", "ang"},
	})
	require.Len(t, rules, 2)
	assert.Equal(t, Rule{"z", "zh"}, rules[0])
	assert.Equal(t, Rule{"an", "ang"}, rules[1])
	assert.Empty(t, ParseRules(nil))
}

func TestToggleFollowsConfig(t *testing.T) {
	store := config.NewStore("")
	e := NewExpander(ParseRules(config.DefaultFuzzyRules()), store.FuzzySound())

	assert.False(t, e.IsEnabled())
	e.SetEnabled(true)
	assert.True(t, store.Get().FuzzySoundEnabled)
	assert.True(t, e.IsEnabled())

	store.Update(func(c *config.EngineConfig) { c.FuzzySoundEnabled = false })
	assert.False(t, e.IsEnabled())

	assert.False(t, defaultExpander().IsEnabled())
}

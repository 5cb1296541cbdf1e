/*
Package config manages the engine configuration: feature toggles, hotkey
bindings and the storage settings of the dictionary and history stores.

Configuration is loaded once at startup, changed only through Store.Set or
Store.Update and written back only by an explicit Store.Save. The file is TOML
by default; a .yaml or .yml path switches to YAML:

	fuzzy_sound_enabled = false
	history_enabled = true

	[hotkeys]
	clear-input = "Esc"
	toggle-language = "Ctrl+Shift"
	page-up = "-"
	page-down = "="

	[fuzzy]
	rules = [["z", "zh"], ["c", "ch"], ["s", "sh"], ["l", "n"]]
*/
package config

// Hotkey action names.
const (
	ActionClearInput     = "clear-input"
	ActionToggleLanguage = "toggle-language"
	ActionPageUp         = "page-up"
	ActionPageDown       = "page-down"
)

// History backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultPageSize is the number of candidates the display layer shows per page.
const DefaultPageSize = 9

// EngineConfig holds the entire config structure
type EngineConfig struct {
	FuzzySoundEnabled bool              `toml:"fuzzy_sound_enabled" yaml:"fuzzy_sound_enabled"`
	HistoryEnabled    bool              `toml:"history_enabled" yaml:"history_enabled"`
	Hotkeys           map[string]string `toml:"hotkeys" yaml:"hotkeys"`
	Dict              DictConfig        `toml:"dict" yaml:"dict"`
	Fuzzy             FuzzyConfig       `toml:"fuzzy" yaml:"fuzzy"`
	History           HistoryConfig     `toml:"history" yaml:"history"`
	CLI               CliConfig         `toml:"cli" yaml:"cli"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	DataDir  string `toml:"data_dir" yaml:"data_dir"`
	Default  string `toml:"default" yaml:"default"`
	Encoding string `toml:"encoding" yaml:"encoding"`
}

// FuzzyConfig holds the fuzzy sound rule groups.
type FuzzyConfig struct {
	Rules [][]string `toml:"rules" yaml:"rules"`
}

// HistoryConfig holds history storage options.
type HistoryConfig struct {
	Backend      string `toml:"backend" yaml:"backend"`
	Path         string `toml:"path" yaml:"path"`
	FlushOnWrite bool   `toml:"flush_on_write" yaml:"flush_on_write"`
}

// CliConfig holds options for the debug CLI and paged surfaces.
type CliConfig struct {
	PageSize int `toml:"page_size" yaml:"page_size"`
}

// Actions returns the hotkey actions in display order.
func Actions() []string {
	return []string{ActionClearInput, ActionToggleLanguage, ActionPageUp, ActionPageDown}
}

// DefaultHotkeys returns the default hotkey bindings.
func DefaultHotkeys() map[string]string {
	return map[string]string{
		ActionClearInput:     "Esc",
		ActionToggleLanguage: "Ctrl+Shift",
		ActionPageUp:         "-",
		ActionPageDown:       "=",
	}
}

// DefaultFuzzyRules returns the representative phonetic confusion groups.
func DefaultFuzzyRules() [][]string {
	return [][]string{
		{"z", "zh"},
		{"c", "ch"},
		{"s", "sh"},
		{"l", "n"},
		{"f", "h"},
		{"an", "ang"},
		{"en", "eng"},
		{"in", "ing"},
	}
}

// DefaultConfig returns an EngineConfig with default values.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		FuzzySoundEnabled: false,
		HistoryEnabled:    true,
		Hotkeys:           DefaultHotkeys(),
		Dict: DictConfig{
			DataDir:  "data",
			Encoding: "auto",
		},
		Fuzzy: FuzzyConfig{
			Rules: DefaultFuzzyRules(),
		},
		History: HistoryConfig{
			Backend:      BackendFile,
			FlushOnWrite: true,
		},
		CLI: CliConfig{
			PageSize: DefaultPageSize,
		},
	}
}

// Clone returns a deep copy so callers never share the hotkey map or rule slices.
func (c EngineConfig) Clone() EngineConfig {
	out := c
	out.Hotkeys = make(map[string]string, len(c.Hotkeys))
	for k, v := range c.Hotkeys {
		out.Hotkeys[k] = v
	}
	if c.Fuzzy.Rules != nil {
		out.Fuzzy.Rules = make([][]string, len(c.Fuzzy.Rules))
		for i, g := range c.Fuzzy.Rules {
			out.Fuzzy.Rules[i] = append([]string(nil), g...)
		}
	}
	return out
}

// Hotkey returns the key bound to action, falling back to the default binding.
func (c EngineConfig) Hotkey(action string) string {
	if k, ok := c.Hotkeys[action]; ok && k != "" {
		return k
	}
	return DefaultHotkeys()[action]
}

// normalize fills fields a partial or hand-edited file left empty.
func (c *EngineConfig) normalize() {
	if c.Hotkeys == nil {
		c.Hotkeys = make(map[string]string, 4)
	}
	for action, key := range DefaultHotkeys() {
		if c.Hotkeys[action] == "" {
			c.Hotkeys[action] = key
		}
	}
	if c.Fuzzy.Rules == nil {
		c.Fuzzy.Rules = DefaultFuzzyRules()
	}
	switch c.History.Backend {
	case BackendFile, BackendSQLite:
	default:
		c.History.Backend = BackendFile
	}
	if c.CLI.PageSize <= 0 {
		c.CLI.PageSize = DefaultPageSize
	}
	if c.Dict.Encoding == "" {
		c.Dict.Encoding = "auto"
	}
}

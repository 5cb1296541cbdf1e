package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.FuzzySoundEnabled)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, map[string]string{
		"clear-input":     "Esc",
		"toggle-language": "Ctrl+Shift",
		"page-up":         "-",
		"page-down":       "=",
	}, cfg.Hotkeys)
	assert.Len(t, cfg.Fuzzy.Rules, 8)
	assert.Equal(t, BackendFile, cfg.History.Backend)
	assert.Equal(t, 9, cfg.CLI.PageSize)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	cfg := s.Load()
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadCorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "this is [[[ not toml")

	s := NewStore(path)
	assert.Equal(t, DefaultConfig(), s.Load())

	_, err := LoadFile(path)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "load", ioErr.Op)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
fuzzy_sound_enabled = true
history_enabled = false

[hotkeys]
page-up = ","

[fuzzy]
rules = [["z", "zh"]]

[history]
backend = "sqlite"
`)

	cfg := NewStore(path).Load()
	assert.True(t, cfg.FuzzySoundEnabled)
	assert.False(t, cfg.HistoryEnabled)
	assert.Equal(t, ",", cfg.Hotkeys[ActionPageUp])
	assert.Equal(t, "=", cfg.Hotkeys[ActionPageDown], "missing hotkeys fall back to defaults")
	assert.Equal(t, "Esc", cfg.Hotkey(ActionClearInput))
	assert.Equal(t, [][]string{{"z", "zh"}}, cfg.Fuzzy.Rules)
	assert.Equal(t, BackendSQLite, cfg.History.Backend)
}

func TestLoadPartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
fuzzy_sound_enabled = true
history_enabled = "sometimes"

[hotkeys]
clear-input = "Backspace"
`)

	cfg := NewStore(path).Load()
	assert.True(t, cfg.FuzzySoundEnabled)
	assert.True(t, cfg.HistoryEnabled, "wrongly typed field keeps its default")
	assert.Equal(t, "Backspace", cfg.Hotkeys[ActionClearInput])
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			s := NewStore(path)
			s.Update(func(c *EngineConfig) {
				c.FuzzySoundEnabled = true
				c.Hotkeys[ActionToggleLanguage] = "Shift"
				c.Dict.Default = "pinyin"
			})
			require.NoError(t, s.Save())

			loaded := NewStore(path).Load()
			assert.Equal(t, s.Get(), loaded)
		})
	}
}

func TestSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "")

	s := NewStore(filepath.Join(blocker, "config.toml"))
	err := s.Save()
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "save", ioErr.Op)

	err = NewStore("").Save()
	require.True(t, errors.Is(err, ErrNoPath))
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore("")
	cfg := s.Get()
	cfg.Hotkeys[ActionPageUp] = "PgUp"
	cfg.Fuzzy.Rules[0][0] = "x"

	fresh := s.Get()
	assert.Equal(t, "-", fresh.Hotkeys[ActionPageUp])
	assert.Equal(t, "z", fresh.Fuzzy.Rules[0][0])
}

func TestSetDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path)
	cfg := s.Get()
	cfg.FuzzySoundEnabled = true
	s.Set(cfg)

	assert.True(t, s.Get().FuzzySoundEnabled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Set must not autosave")
}

func TestToggles(t *testing.T) {
	s := NewStore("")
	fuzzy, history := s.FuzzySound(), s.History()

	assert.False(t, fuzzy.IsEnabled())
	fuzzy.SetEnabled(true)
	assert.True(t, fuzzy.IsEnabled())
	assert.True(t, s.Get().FuzzySoundEnabled)

	assert.True(t, history.IsEnabled())
	history.SetEnabled(false)
	assert.False(t, s.Get().HistoryEnabled)
	assert.True(t, fuzzy.IsEnabled(), "toggles are independent")
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path)
	s.FuzzySound().SetEnabled(true)
	require.NoError(t, s.Reset())
	assert.Equal(t, DefaultConfig(), NewStore(path).Load())
}

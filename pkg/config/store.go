package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// IOError reports a failure reading or writing the config file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ErrNoPath is returned by Save when the store has no backing file.
var ErrNoPath = errors.New("no config path")

// Store owns the process-wide EngineConfig.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  EngineConfig
}

// NewStore creates a store backed by path holding the default config.
// Call Load to read the file.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		cfg:  DefaultConfig(),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file and replaces the current config with it.
// A missing or unparsable file yields the defaults; Load never fails.
func (s *Store) Load() EngineConfig {
	cfg, err := LoadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("No config file at %s, using built-in defaults", s.path)
		} else {
			log.Warnf("Failed to load config: %v. Using built-in defaults...", err)
		}
		cfg = DefaultConfig()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return cfg.Clone()
}

// Get returns a copy of the current config.
func (s *Store) Get() EngineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Set replaces the current config. It is not persisted until Save.
func (s *Store) Set(cfg EngineConfig) {
	cfg = cfg.Clone()
	cfg.normalize()

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Update applies fn to the current config as one atomic change.
func (s *Store) Update(fn func(*EngineConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg.Clone()
	fn(&cfg)
	cfg.normalize()
	s.cfg = cfg
}

// Save writes the current config to the backing file.
func (s *Store) Save() error {
	if s.path == "" {
		return &IOError{Op: "save", Err: ErrNoPath}
	}
	cfg := s.Get()
	if err := SaveFile(cfg, s.path); err != nil {
		return &IOError{Op: "save", Path: s.path, Err: err}
	}
	log.Debugf("Saved config to %s", s.path)
	return nil
}

// Reset restores the defaults and writes them to the backing file.
func (s *Store) Reset() error {
	s.Set(DefaultConfig())
	return s.Save()
}

// FuzzySound returns the toggle for fuzzy sound expansion.
func (s *Store) FuzzySound() Toggle {
	return Toggle{store: s, field: func(c *EngineConfig) *bool { return &c.FuzzySoundEnabled }}
}

// History returns the toggle for history-driven ranking.
func (s *Store) History() Toggle {
	return Toggle{store: s, field: func(c *EngineConfig) *bool { return &c.HistoryEnabled }}
}

// Toggle is an on/off flag stored as a field of EngineConfig. It is read at
// call time so changes apply to the next resolution.
type Toggle struct {
	store *Store
	field func(*EngineConfig) *bool
}

// IsEnabled reports the current value of the flag.
func (t Toggle) IsEnabled() bool {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return *t.field(&t.store.cfg)
}

// SetEnabled changes the flag; persist it with Store.Save.
func (t Toggle) SetEnabled(enabled bool) {
	t.store.Update(func(c *EngineConfig) {
		*t.field(c) = enabled
	})
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile loads a config file, TOML or YAML by extension.
// TOML files that fail to decode are recovered field by field.
func LoadFile(path string) (EngineConfig, error) {
	if path == "" {
		return DefaultConfig(), &IOError{Op: "load", Err: ErrNoPath}
	}
	if !utils.FileExists(path) {
		return DefaultConfig(), &IOError{Op: "load", Path: path, Err: os.ErrNotExist}
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return DefaultConfig(), &IOError{Op: "load", Path: path, Err: err}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), &IOError{Op: "load", Path: path, Err: err}
		}
	} else if err := utils.LoadTOMLFile(path, &cfg); err != nil {
		recovered, perr := tryPartialParse(path)
		if perr != nil {
			return DefaultConfig(), &IOError{Op: "load", Path: path, Err: perr}
		}
		cfg = recovered
	}

	cfg.normalize()
	return cfg, nil
}

// SaveFile writes cfg to path, TOML or YAML by extension.
func SaveFile(cfg EngineConfig, path string) error {
	if isYAML(path) {
		return utils.WriteFileAtomic(path, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		})
	}
	return utils.SaveTOMLFile(cfg, path)
}

// tryPartialParse keeps every field of a broken TOML file that still has
// the right type.
func tryPartialParse(configPath string) (EngineConfig, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		return config, err
	}

	if val, ok := utils.ExtractBool(tempConfig, "fuzzy_sound_enabled"); ok {
		config.FuzzySoundEnabled = val
	}
	if val, ok := utils.ExtractBool(tempConfig, "history_enabled"); ok {
		config.HistoryEnabled = val
	}
	if section, ok := utils.ExtractSection(tempConfig, "hotkeys"); ok {
		for _, action := range Actions() {
			if val, ok := utils.ExtractString(section, action); ok {
				config.Hotkeys[action] = val
			}
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		if val, ok := utils.ExtractString(section, "data_dir"); ok {
			config.Dict.DataDir = val
		}
		if val, ok := utils.ExtractString(section, "default"); ok {
			config.Dict.Default = val
		}
		if val, ok := utils.ExtractString(section, "encoding"); ok {
			config.Dict.Encoding = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "fuzzy"); ok {
		if groups, ok := utils.ExtractStringGroups(section, "rules"); ok {
			config.Fuzzy.Rules = groups
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		if val, ok := utils.ExtractString(section, "backend"); ok {
			config.History.Backend = val
		}
		if val, ok := utils.ExtractString(section, "path"); ok {
			config.History.Path = val
		}
		if val, ok := utils.ExtractBool(section, "flush_on_write"); ok {
			config.History.FlushOnWrite = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "page_size"); ok {
			config.CLI.PageSize = val
		}
	}
	return config, nil
}

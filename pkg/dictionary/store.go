package dictionary

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Store discovers dictionaries in a data dir and holds the active one.
// Lookups read one immutable snapshot; Activate swaps it under the lock.
type Store struct {
	mu     sync.RWMutex
	dir    string
	opts   []Option
	active *Dictionary
}

// NewStore creates a store over dir. opts apply to every load.
func NewStore(dir string, opts ...Option) *Store {
	return &Store{dir: dir, opts: opts}
}

// Dir returns the data dir.
func (s *Store) Dir() string {
	return s.dir
}

// files maps each dictionary name to its preferred file in the data dir.
func (s *Store) files() map[string]string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Debugf("Cannot read dictionary dir %s: %v", s.dir, err)
		return nil
	}
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !IsDictionaryFile(e.Name()) {
			continue
		}
		name := NameFromPath(e.Name())
		if name == "" {
			continue
		}
		if prev, ok := files[name]; ok && extensionRank(prev) <= extensionRank(e.Name()) {
			continue
		}
		files[name] = e.Name()
	}
	return files
}

// ListAvailable returns the names of all dictionaries in the data dir,
// sorted and unique.
func (s *Store) ListAvailable() []string {
	files := s.files()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PathOf returns the file that backs name.
func (s *Store) PathOf(name string) (string, bool) {
	file, ok := s.files()[name]
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, file), true
}

// Activate loads name and makes it active. It returns false, keeping the
// previous dictionary, when name is unknown or fails to load.
func (s *Store) Activate(name string) bool {
	path, ok := s.PathOf(name)
	if !ok {
		log.Warnf("Dictionary %q not found in %s", name, s.dir)
		return false
	}
	opts := make([]Option, 0, len(s.opts)+1)
	opts = append(opts, s.opts...)
	d, err := Load(path, append(opts, WithName(name))...)
	if err != nil {
		log.Warnf("Cannot switch to dictionary %q: %v", name, err)
		return false
	}

	s.mu.Lock()
	s.active = d
	s.mu.Unlock()

	log.Infof("Active dictionary: %s (%d codes)", name, d.Len())
	return true
}

// Init activates preferred when possible, otherwise the first available
// dictionary that loads. It returns false when nothing could be activated.
func (s *Store) Init(preferred string) bool {
	if preferred != "" && s.Activate(preferred) {
		return true
	}
	for _, name := range s.ListAvailable() {
		if name == preferred {
			continue
		}
		if s.Activate(name) {
			return true
		}
	}
	log.Warnf("No usable dictionary in %s", s.dir)
	return false
}

// Reload re-reads the active dictionary from disk. On failure the current
// table stays active.
func (s *Store) Reload() bool {
	name := s.ActiveName()
	if name == "" {
		return false
	}
	return s.Activate(name)
}

// Active returns the active dictionary, or nil when none is loaded.
func (s *Store) Active() *Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveName returns the active dictionary name, or "".
func (s *Store) ActiveName() string {
	return s.Active().Name()
}

// Lookup returns the candidates of code in the active dictionary; empty on
// miss or when nothing is active.
func (s *Store) Lookup(code string) []string {
	return s.Active().Lookup(code)
}

// Complete lists codes of the active dictionary that start with prefix.
func (s *Store) Complete(prefix string, limit int) []string {
	return s.Active().Complete(prefix, limit)
}

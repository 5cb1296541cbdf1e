// Package engine wires the configuration, dictionary, fuzzy, history and
// resolver components in their initialization order and owns their
// lifetimes.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/bastiangx/fqwb/pkg/dictionary"
	"github.com/bastiangx/fqwb/pkg/fuzzy"
	"github.com/bastiangx/fqwb/pkg/history"
	"github.com/bastiangx/fqwb/pkg/resolver"
	"github.com/charmbracelet/log"
)

// Feature names accepted by Toggle.
const (
	FeatureFuzzy   = "fuzzy"
	FeatureHistory = "history"
)

// ErrUnknownFeature is returned by Toggle for names other than the Feature constants.
var ErrUnknownFeature = errors.New("unknown feature")

// Options override values from the config file. Empty fields keep the
// configured value.
type Options struct {
	ConfigPath  string
	DataDir     string
	Dict        string
	HistoryPath string
	// Watch reloads the active dictionary when its file changes.
	Watch bool
}

// HistoryFileName is the default history file for a backend.
func HistoryFileName(backend string) string {
	if backend == config.BackendSQLite {
		return "history.db"
	}
	return "history.msgpack"
}

// Engine bundles the components behind one candidate resolution service.
type Engine struct {
	cfg      *config.Store
	dicts    *dictionary.Store
	expander *fuzzy.Expander
	history  *history.Store
	resolver *resolver.Resolver

	watcher *dictionary.Watcher
	cancel  context.CancelFunc
}

// New builds an engine: Config, then Dictionary, Fuzzy rules, History and
// finally the Resolver. A missing dictionary or unreadable history is logged
// and tolerated; only a watcher that cannot start is an error.
func New(opts Options) (*Engine, error) {
	cfgStore := config.NewStore(opts.ConfigPath)
	cfg := cfgStore.Load()

	dataDir := cfg.Dict.DataDir
	if opts.DataDir != "" {
		dataDir = opts.DataDir
	}
	dicts := dictionary.NewStore(dataDir, dictionary.WithEncoding(dictionary.ParseEncoding(cfg.Dict.Encoding)))
	preferred := cfg.Dict.Default
	if opts.Dict != "" {
		preferred = opts.Dict
	}
	if !dicts.Init(preferred) {
		log.Warnf("Starting without an active dictionary; data dir: %s", dataDir)
	}

	expander := fuzzy.NewExpander(fuzzy.ParseRules(cfg.Fuzzy.Rules), cfgStore.FuzzySound())

	historyPath := cfg.History.Path
	if opts.HistoryPath != "" {
		historyPath = opts.HistoryPath
	}
	hist := history.New(
		openBackend(cfg.History.Backend, historyPath),
		cfgStore.History(),
		history.WithFlushOnWrite(cfg.History.FlushOnWrite),
	)

	e := &Engine{
		cfg:      cfgStore,
		dicts:    dicts,
		expander: expander,
		history:  hist,
		resolver: resolver.New(dicts, expander, hist, cfgStore),
	}

	if opts.Watch {
		if err := e.startWatcher(); err != nil {
			hist.Close()
			return nil, fmt.Errorf("watch %s: %w", dataDir, err)
		}
	}
	return e, nil
}

// openBackend returns nil, keeping history in memory, when path is empty or
// the database cannot be opened.
func openBackend(kind, path string) history.Backend {
	if path == "" {
		log.Debug("No history path configured, history is kept in memory")
		return nil
	}
	if kind == config.BackendSQLite {
		b, err := history.OpenSQLite(path)
		if err != nil {
			log.Warnf("Cannot open history database %s, history is kept in memory: %v", path, err)
			return nil
		}
		return b
	}
	return history.NewFileBackend(path)
}

func (e *Engine) startWatcher() error {
	w, err := dictionary.NewWatcher(e.dicts, 0)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	e.watcher = w
	e.cancel = cancel
	log.Debugf("Watching %s for dictionary changes", e.dicts.Dir())
	return nil
}

func (e *Engine) Config() *config.Store { return e.cfg }
func (e *Engine) Dictionaries() *dictionary.Store { return e.dicts }
func (e *Engine) Expander() *fuzzy.Expander { return e.expander }
func (e *Engine) History() *history.Store { return e.history }
func (e *Engine) Resolver() *resolver.Resolver { return e.resolver }
func (e *Engine) Watcher() *dictionary.Watcher { return e.watcher }

// SwitchDictionary activates name and, on success, makes it the configured
// default. The change is persisted by the next config save.
func (e *Engine) SwitchDictionary(name string) bool {
	if !e.dicts.Activate(name) {
		return false
	}
	e.cfg.Update(func(c *config.EngineConfig) { c.Dict.Default = name })
	return true
}

// Toggle switches a feature on or off.
func (e *Engine) Toggle(feature string, enabled bool) error {
	switch feature {
	case FeatureFuzzy:
		e.expander.SetEnabled(enabled)
	case FeatureHistory:
		e.history.SetEnabled(enabled)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return nil
}

// Close stops the watcher and flushes history.
func (e *Engine) Close() error {
	if e.cancel != nil {
		e.cancel()
		e.watcher.Wait()
		e.cancel = nil
	}
	return e.history.Close()
}

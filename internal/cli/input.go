// Package cli is a line-oriented debug console over the engine: type a code to
// see its candidates, pick one by number, page with the configured hotkeys.
package cli

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/fqwb/internal/logger"
	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/bastiangx/fqwb/pkg/engine"
	"github.com/bastiangx/fqwb/pkg/resolver"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const completionHints = 8

// InputHandler reads commands and codes line by line and prints candidates.
type InputHandler struct {
	engine *engine.Engine
	reader io.Reader
	out    *log.Logger
	word   lipgloss.Style

	code  string
	cands []string
	page  resolver.Page

	mu      sync.Mutex
	stopped bool
}

// NewInputHandler creates a handler reading from r and printing to w.
func NewInputHandler(eng *engine.Engine, r io.Reader, w io.Writer) *InputHandler {
	return &InputHandler{
		engine: eng,
		reader: r,
		out:    logger.NewWithConfig(w, "", log.InfoLevel, false, false, log.TextFormatter),
		word:   lipgloss.NewRenderer(w).NewStyle().Foreground(lipgloss.Color("75")),
	}
}

// Start runs the loop until input ends or :q is entered.
func (h *InputHandler) Start() error {
	h.out.Print("fqwb CLI")
	h.out.Print("type a code and press Enter; 1-9 picks a candidate, :help lists commands")

	scanner := bufio.NewScanner(h.reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !h.step(line) {
			return nil
		}
	}
	return scanner.Err()
}

// step handles one line unless Stop was called.
func (h *InputHandler) step(line string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	return h.handleLine(line)
}

// Stop waits for the line being handled and makes Start return before the
// next one.
func (h *InputHandler) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// handleLine processes one line and reports whether to keep reading.
func (h *InputHandler) handleLine(line string) bool {
	cfg := h.engine.Config().Get()
	switch line {
	case cfg.Hotkey(config.ActionPageDown):
		h.turnPage(1)
		return true
	case cfg.Hotkey(config.ActionPageUp):
		h.turnPage(-1)
		return true
	case cfg.Hotkey(config.ActionClearInput):
		h.clear()
		return true
	}

	if strings.HasPrefix(line, ":") {
		return h.handleCommand(strings.Fields(line[1:]))
	}
	if n, err := strconv.Atoi(line); err == nil && len(line) == 1 && n >= 1 && h.code != "" {
		h.pick(n)
		return true
	}
	h.lookup(line)
	return true
}

func (h *InputHandler) handleCommand(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "q", "quit", "exit":
		return false
	case "help":
		h.help()
	case "dict":
		h.dictCommand(args[1:])
	case "fuzzy":
		h.toggleCommand(engine.FeatureFuzzy, h.engine.Expander().IsEnabled(), args[1:])
	case "history":
		if len(args) > 1 && args[1] == "clear" {
			if err := h.engine.History().Clear(); err != nil {
				h.out.Errorf("Clearing history: %v", err)
				return true
			}
			h.out.Print("history cleared")
			return true
		}
		h.toggleCommand(engine.FeatureHistory, h.engine.History().IsEnabled(), args[1:])
	case "save":
		if err := h.engine.Config().Save(); err != nil {
			h.out.Errorf("Saving config: %v", err)
			return true
		}
		h.out.Printf("config saved to %s", h.engine.Config().Path())
	case "clear":
		h.clear()
	default:
		h.out.Warnf("unknown command :%s (try :help)", args[0])
	}
	return true
}

func (h *InputHandler) help() {
	cfg := h.engine.Config().Get()
	h.out.Print(":dict [name]            list dictionaries or switch")
	h.out.Print(":fuzzy [on|off]         toggle fuzzy sound")
	h.out.Print(":history [on|off|clear] toggle or clear history")
	h.out.Print(":save                   write the config file")
	h.out.Print(":clear                  drop the current input")
	h.out.Print(":q                      quit")
	h.out.Printf("%s / %s page, %s clears", cfg.Hotkey(config.ActionPageUp),
		cfg.Hotkey(config.ActionPageDown), cfg.Hotkey(config.ActionClearInput))
}

func (h *InputHandler) dictCommand(args []string) {
	dicts := h.engine.Dictionaries()
	if len(args) == 0 {
		active := dicts.ActiveName()
		for _, name := range dicts.ListAvailable() {
			marker := " "
			if name == active {
				marker = "*"
			}
			h.out.Printf("%s %s", marker, name)
		}
		return
	}
	if !h.engine.SwitchDictionary(args[0]) {
		h.out.Warnf("cannot switch to %q, still using %q", args[0], dicts.ActiveName())
		return
	}
	h.out.Printf("using %s (%s codes)", args[0], utils.FormatWithCommas(dicts.Active().Len()))
	if h.code != "" {
		h.lookup(h.code)
	}
}

func (h *InputHandler) toggleCommand(feature string, current bool, args []string) {
	enabled := !current
	if len(args) > 0 {
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			h.out.Warnf("expected on or off, got %q", args[0])
			return
		}
	}
	if err := h.engine.Toggle(feature, enabled); err != nil {
		h.out.Errorf("%v", err)
		return
	}
	state := "off"
	if enabled {
		state = "on"
	}
	h.out.Printf("%s %s", feature, state)
}

func (h *InputHandler) lookup(raw string) {
	code := utils.NormalizeCode(raw)
	if code == "" {
		h.out.Warnf("not a code: %q", raw)
		return
	}

	start := time.Now()
	h.code = code
	h.cands = h.engine.Resolver().Resolve(code)
	h.out.Debugf("resolved %q in %v", code, time.Since(start))
	h.showPage(0)
}

func (h *InputHandler) showPage(n int) {
	size := h.engine.Config().Get().CLI.PageSize
	h.page = resolver.Paginate(h.cands, size, n)
	if len(h.cands) == 0 {
		h.out.Printf("no candidates for %q", h.code)
		if longer := h.engine.Dictionaries().Complete(h.code, completionHints); len(longer) > 0 {
			h.out.Printf("codes starting with %q: %s", h.code, strings.Join(longer, " "))
		}
		return
	}
	h.out.Printf("%s [%d/%d] %d candidates", h.code, h.page.Index+1, h.page.Total, len(h.cands))
	for i, c := range h.page.Items {
		h.out.Printf("%d. %s", i+1, h.word.Render(c))
	}
}

func (h *InputHandler) turnPage(delta int) {
	if h.code == "" {
		return
	}
	next := h.page.Index + delta
	if next < 0 || next >= h.page.Total {
		return
	}
	h.showPage(next)
}

func (h *InputHandler) pick(n int) {
	if n > len(h.page.Items) {
		h.out.Warnf("no candidate %d on this page", n)
		return
	}
	cand := h.page.Items[n-1]
	if err := h.engine.Resolver().Commit(h.code, cand); err != nil {
		h.out.Warnf("selection not persisted: %v", err)
	}
	h.out.Printf("%s -> %s", h.code, cand)
	h.clear()
}

func (h *InputHandler) clear() {
	h.code = ""
	h.cands = nil
	h.page = resolver.Page{}
}

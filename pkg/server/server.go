package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bastiangx/fqwb/internal/logger"
	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/bastiangx/fqwb/pkg/engine"
	"github.com/bastiangx/fqwb/pkg/resolver"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// structTag is the fallback tag for types without msgpack tags, so configs
// travel with their TOML key names.
const structTag = "toml"

// Server handles the IPC for candidate resolution
type Server struct {
	engine   *engine.Engine
	decoder  *msgpack.Decoder
	writer   *bufio.Writer
	logger   *log.Logger
	requests int64

	// mu is held while a request is handled; Stop takes it to wait for the
	// request in flight.
	mu      sync.Mutex
	stopped bool
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(eng *engine.Engine, r io.Reader, w io.Writer) *Server {
	return &Server{
		engine:  eng,
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		writer:  bufio.NewWriter(w),
		logger:  logger.New("ipc"),
	}
}

// Start serves requests until the input ends. It returns nil on EOF and the
// read error when the stream itself is broken.
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	if err := s.send(StatusResponse{Status: StatusReady}); err != nil {
		return err
	}

	for {
		var raw msgpack.RawMessage
		if err := s.decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed, stopping")
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return err
		}
		handled, err := s.serve(raw)
		if err != nil {
			return err
		}
		if !handled {
			s.logger.Debug("Stopped, dropping further requests")
			return nil
		}
	}
}

// serve answers one request. handled is false once Stop was called.
func (s *Server) serve(raw []byte) (handled bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false, nil
	}
	s.requests++
	return true, s.send(s.handle(raw))
}

// Stop waits for the request in flight, if any, and makes Start return
// before handling another one. A Start blocked reading input returns when
// its next request arrives or the input ends.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *Server) send(resp any) error {
	enc := msgpack.NewEncoder(s.writer)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(resp); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return err
	}
	return s.writer.Flush()
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag(structTag)
	err := dec.Decode(&req)
	return req, err
}

func errorResponse(id, format string, args ...any) StatusResponse {
	return StatusResponse{ID: id, Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// handle dispatches one request by action.
func (s *Server) handle(raw []byte) any {
	req, err := decodeRequest(raw)
	if err != nil {
		s.logger.Warnf("Invalid request: %v", err)
		return errorResponse("", "invalid request: %v", err)
	}
	s.logger.Debug("request", "id", req.ID, "action", req.Action)

	switch req.Action {
	case ActionResolve:
		return s.handleResolve(req)
	case ActionCommit:
		return s.handleCommit(req)
	case ActionDictList:
		return s.dictionaryResponse(req.ID, StatusOK, "")
	case ActionDictSwitch:
		return s.handleDictSwitch(req)
	case ActionConfigGet:
		return ConfigResponse{ID: req.ID, Status: StatusOK, Config: s.engine.Config().Get()}
	case ActionConfigSet:
		return s.handleConfigSet(req)
	case ActionConfigSave:
		if err := s.engine.Config().Save(); err != nil {
			return errorResponse(req.ID, "%v", err)
		}
		return StatusResponse{ID: req.ID, Status: StatusOK}
	case ActionToggle:
		return s.handleToggle(req)
	case ActionHistoryClear:
		if err := s.engine.History().Clear(); err != nil {
			return errorResponse(req.ID, "%v", err)
		}
		return StatusResponse{ID: req.ID, Status: StatusOK}
	case ActionHealth:
		return s.health(req.ID)
	case "":
		return errorResponse(req.ID, "missing action")
	default:
		return errorResponse(req.ID, "unknown action: %s", req.Action)
	}
}

func (s *Server) handleResolve(req Request) any {
	code := utils.NormalizeCode(req.Code)
	if code == "" {
		return errorResponse(req.ID, "missing or invalid 'code'")
	}

	size := req.PageSize
	if size <= 0 {
		size = s.engine.Config().Get().CLI.PageSize
	}

	start := time.Now()
	cands := s.engine.Resolver().Resolve(code)
	page := resolver.Paginate(cands, size, req.Page)
	elapsed := time.Since(start)

	return ResolveResponse{
		ID:        req.ID,
		Status:    StatusOK,
		Code:      code,
		Items:     page.Items,
		Page:      page.Index,
		Pages:     page.Total,
		Count:     len(cands),
		TimeTaken: elapsed.Microseconds(),
	}
}

func (s *Server) handleCommit(req Request) any {
	code := utils.NormalizeCode(req.Code)
	if code == "" || req.Candidate == "" {
		return errorResponse(req.ID, "commit needs 'code' and 'candidate'")
	}
	if err := s.engine.Resolver().Commit(code, req.Candidate); err != nil {
		// the selection still counts in memory
		s.logger.Warnf("Persisting selection failed: %v", err)
		return errorResponse(req.ID, "%v", err)
	}
	return StatusResponse{ID: req.ID, Status: StatusOK}
}

func (s *Server) handleDictSwitch(req Request) any {
	if req.Name == "" {
		return errorResponse(req.ID, "missing 'name'")
	}
	if !s.engine.SwitchDictionary(req.Name) {
		return s.dictionaryResponse(req.ID, StatusError, fmt.Sprintf("cannot switch to %q", req.Name))
	}
	return s.dictionaryResponse(req.ID, StatusOK, "")
}

func (s *Server) dictionaryResponse(id, status, msg string) DictionaryResponse {
	dicts := s.engine.Dictionaries()
	return DictionaryResponse{
		ID:        id,
		Status:    status,
		Error:     msg,
		Active:    dicts.ActiveName(),
		Available: dicts.ListAvailable(),
	}
}

func (s *Server) handleConfigSet(req Request) any {
	if len(req.Config) == 0 {
		return errorResponse(req.ID, "missing 'config'")
	}
	cfg := s.engine.Config().Get()
	dec := msgpack.NewDecoder(bytes.NewReader(req.Config))
	dec.SetCustomStructTag(structTag)
	if err := dec.Decode(&cfg); err != nil {
		return errorResponse(req.ID, "invalid config: %v", err)
	}
	s.engine.Config().Set(cfg)
	return ConfigResponse{ID: req.ID, Status: StatusOK, Config: s.engine.Config().Get()}
}

func (s *Server) handleToggle(req Request) any {
	if req.Enabled == nil {
		return errorResponse(req.ID, "missing 'enabled'")
	}
	if err := s.engine.Toggle(req.Feature, *req.Enabled); err != nil {
		return errorResponse(req.ID, "%v", err)
	}
	return ConfigResponse{ID: req.ID, Status: StatusOK, Config: s.engine.Config().Get()}
}

func (s *Server) health(id string) HealthResponse {
	active := s.engine.Dictionaries().Active()
	cfg := s.engine.Config().Get()
	return HealthResponse{
		ID:             id,
		Status:         StatusOK,
		Dictionary:     active.Name(),
		Codes:          active.Len(),
		HistoryRecords: s.engine.History().Len(),
		FuzzySound:     cfg.FuzzySoundEnabled,
		History:        cfg.HistoryEnabled,
		Requests:       s.requests,
	}
}

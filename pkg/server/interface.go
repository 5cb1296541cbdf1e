/*
Package server implements msgpack IPC over stdin/stdout for the candidate
resolution engine.

Clients write one msgpack map per request and read one map per response. Every
request carries an id, echoed in the response, and an action:

	{"id": "r1", "action": "resolve", "code": "wang", "page": 0}
	{"id": "r1", "status": "ok", "code": "wang", "items": ["王", "汪"], "page": 0, "pages": 1, "count": 2, "t": 41}

	{"id": "c1", "action": "commit", "code": "wang", "candidate": "汪"}
	{"id": "d1", "action": "dict_switch", "name": "wubi"}
	{"id": "t1", "action": "toggle", "feature": "fuzzy", "enabled": true}

On startup the server writes {"status": "ready"}. Failed requests get a
response with status "error" and a message in "error"; the stream continues.

Supported actions: resolve, commit, dict_list, dict_switch, config_get,
config_set, config_save, toggle, history_clear, health.

Config payloads use the same snake_case keys as the TOML file. A config_set
payload is merged onto the current config, so clients may send only the
fields they change. Fuzzy rule groups are read at startup only.
*/
package server

import (
	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ActionResolve      = "resolve"
	ActionCommit       = "commit"
	ActionDictList     = "dict_list"
	ActionDictSwitch   = "dict_switch"
	ActionConfigGet    = "config_get"
	ActionConfigSet    = "config_set"
	ActionConfigSave   = "config_save"
	ActionToggle       = "toggle"
	ActionHistoryClear = "history_clear"
	ActionHealth       = "health"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusReady = "ready"
)

// Request is the union of all request fields; each action reads its own.
type Request struct {
	ID        string             `msgpack:"id"`
	Action    string             `msgpack:"action"`
	Code      string             `msgpack:"code,omitempty"`
	Candidate string             `msgpack:"candidate,omitempty"`
	Page      int                `msgpack:"page,omitempty"`
	PageSize  int                `msgpack:"page_size,omitempty"`
	Name      string             `msgpack:"name,omitempty"`
	Feature   string             `msgpack:"feature,omitempty"`
	Enabled   *bool              `msgpack:"enabled,omitempty"`
	Config    msgpack.RawMessage `msgpack:"config,omitempty"`
}

// StatusResponse answers actions that only report success.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"error,omitempty"`
}

// ResolveResponse carries one page of ranked candidates.
type ResolveResponse struct {
	ID        string   `msgpack:"id"`
	Status    string   `msgpack:"status"`
	Code      string   `msgpack:"code"`
	Items     []string `msgpack:"items"`
	Page      int      `msgpack:"page"`
	Pages     int      `msgpack:"pages"`
	Count     int      `msgpack:"count"`
	TimeTaken int64    `msgpack:"t"` // microseconds
}

// DictionaryResponse answers dict_list and dict_switch.
type DictionaryResponse struct {
	ID        string   `msgpack:"id"`
	Status    string   `msgpack:"status"`
	Error     string   `msgpack:"error,omitempty"`
	Active    string   `msgpack:"active"`
	Available []string `msgpack:"available"`
}

// ConfigResponse answers config_get, config_set and toggle.
type ConfigResponse struct {
	ID     string              `msgpack:"id"`
	Status string              `msgpack:"status"`
	Error  string              `msgpack:"error,omitempty"`
	Config config.EngineConfig `msgpack:"config"`
}

// HealthResponse reports what the engine is serving.
type HealthResponse struct {
	ID             string `msgpack:"id"`
	Status         string `msgpack:"status"`
	Dictionary     string `msgpack:"dictionary"`
	Codes          int    `msgpack:"codes"`
	HistoryRecords int    `msgpack:"history_records"`
	FuzzySound     bool   `msgpack:"fuzzy_sound"`
	History        bool   `msgpack:"history"`
	Requests       int64  `msgpack:"requests"`
}

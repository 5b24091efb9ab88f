package sql

import (
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// SysVarScope distinguishes session-local from global (shared-across-
// sessions) system variables.
type SysVarScope int

const (
	ScopeSession SysVarScope = iota
	ScopeGlobal
	ScopeBoth
)

// SystemVariable declares one variable's name, scope, default, and type tag
// (used only to decide how cast coerces a SET value).
type SystemVariable struct {
	Name    string
	Scope   SysVarScope
	Default interface{}
	IsInt   bool
	IsBool  bool
}

var defaultSystemVariables = []SystemVariable{
	{Name: "autocommit", Scope: ScopeSession, Default: int64(1), IsBool: true},
	{Name: "transaction_isolation", Scope: ScopeBoth, Default: "REPEATABLE-READ"},
	{Name: "lock_wait_timeout", Scope: ScopeBoth, Default: int64(50), IsInt: true},
	{Name: "sort_buffer_size", Scope: ScopeBoth, Default: int64(256 * 1024), IsInt: true},
	{Name: "join_buffer_size", Scope: ScopeBoth, Default: int64(256 * 1024), IsInt: true},
	{Name: "max_execution_time", Scope: ScopeSession, Default: int64(0), IsInt: true},
	{Name: "last_insert_id", Scope: ScopeSession, Default: int64(0), IsInt: true},
	{Name: "sql_mode", Scope: ScopeBoth, Default: ""},
}

// SystemVariables holds the session and global views of system variables
// (§3). Global values are process-wide; each SystemVariables instance
// shares a single *globals map by pointer so SET GLOBAL is visible to every
// session.
type SystemVariables struct {
	mu      *sync.Mutex
	session map[string]interface{}
	global  *map[string]interface{}
	decls   map[string]SystemVariable
}

var processGlobals = map[string]interface{}{}
var globalsMu sync.Mutex

// NewSystemVariables returns session variables seeded from the registered
// defaults, sharing the process-wide global map.
func NewSystemVariables() *SystemVariables {
	decls := make(map[string]SystemVariable, len(defaultSystemVariables))
	session := make(map[string]interface{}, len(defaultSystemVariables))
	globalsMu.Lock()
	for _, d := range defaultSystemVariables {
		decls[d.Name] = d
		session[d.Name] = d.Default
		if _, ok := processGlobals[d.Name]; !ok {
			processGlobals[d.Name] = d.Default
		}
	}
	globalsMu.Unlock()
	return &SystemVariables{
		mu:      &sync.Mutex{},
		session: session,
		global:  &processGlobals,
		decls:   decls,
	}
}

// Get returns a system variable's value: the global value for a
// "global."-qualified name, otherwise the session value, falling back to
// global for names with no session entry. NewSystemVariables gives every
// declared variable a session entry, so an unqualified read of one does not
// see a later SET GLOBAL.
func (v *SystemVariables) Get(name string) (interface{}, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "@@"))
	name = strings.TrimPrefix(name, "session.")
	global := strings.HasPrefix(name, "global.")
	name = strings.TrimPrefix(name, "global.")
	v.mu.Lock()
	defer v.mu.Unlock()
	if val, ok := v.session[name]; ok && !global {
		return val, nil
	}
	globalsMu.Lock()
	defer globalsMu.Unlock()
	if val, ok := (*v.global)[name]; ok {
		return val, nil
	}
	return nil, ErrUnsupportedFeature.New("unknown system variable: " + name)
}

// SetSession sets a session-scoped system variable, coercing val to the
// declared representation with cast.
func (v *SystemVariables) SetSession(name string, val interface{}) error {
	name = strings.ToLower(name)
	v.mu.Lock()
	defer v.mu.Unlock()
	coerced, err := v.coerce(name, val)
	if err != nil {
		return err
	}
	v.session[name] = coerced
	return nil
}

// SetGlobal sets a global system variable, visible to every session sharing
// this process.
func (v *SystemVariables) SetGlobal(name string, val interface{}) error {
	name = strings.ToLower(name)
	coerced, err := v.coerce(name, val)
	if err != nil {
		return err
	}
	globalsMu.Lock()
	defer globalsMu.Unlock()
	(*v.global)[name] = coerced
	return nil
}

func (v *SystemVariables) coerce(name string, val interface{}) (interface{}, error) {
	decl, ok := v.decls[name]
	if !ok {
		// Unregistered variables are accepted permissively (many
		// integrators define their own); store as-is.
		return val, nil
	}
	switch {
	case decl.IsBool:
		b, err := cast.ToBoolE(val)
		if err != nil {
			return nil, ErrTypeMismatch.New(val, val, "BOOL")
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case decl.IsInt:
		i, err := cast.ToInt64E(val)
		if err != nil {
			return nil, ErrTypeMismatch.New(val, val, "INT")
		}
		return i, nil
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return nil, ErrTypeMismatch.New(val, val, "VARCHAR")
		}
		return s, nil
	}
}

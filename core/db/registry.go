package db

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fbz-tec/dbport/core/config"
)

// Constructor builds a disconnected Backend from cfg.
type Constructor func(cfg config.Config) Backend

// Backend type keys understood by the default registry.
const (
	TypeMySQL      = "mysql"
	TypePostgreSQL = "postgresql"
	TypePostgres   = "postgres"
	TypeSQLite     = "sqlite"
	TypeRedis      = "redis"
)

// Registry maps backend type names to constructors. Type names are matched
// exactly, case included.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: map[string]Constructor{}}
}

// Register stores ctor under typ, replacing any earlier registration.
func (r *Registry) Register(typ string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[typ] = ctor
}

func (r *Registry) Supported(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[typ]
	return ok
}

// List returns the registered type names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Create builds a new, disconnected Backend of type typ.
func (r *Registry) Create(typ string, cfg config.Config) (Backend, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, newError(ErrConfig, "create", fmt.Errorf("%w %q (available: %v)", ErrUnknownBackendType, typ, r.List()))
	}
	return ctor(cfg), nil
}

// RegisterBuiltins adds every backend shipped with this package to r.
func RegisterBuiltins(r *Registry) {
	r.Register(TypeMySQL, func(cfg config.Config) Backend { return NewMySQL(cfg) })
	r.Register(TypePostgreSQL, func(cfg config.Config) Backend { return NewPostgres(cfg) })
	r.Register(TypePostgres, func(cfg config.Config) Backend { return NewPostgres(cfg) })
	r.Register(TypeSQLite, func(cfg config.Config) Backend { return NewSQLite(cfg) })
	r.Register(TypeRedis, func(cfg config.Config) Backend { return NewRedis(cfg) })
}

var (
	defaultRegistry = NewRegistry()
	initOnce        sync.Once
)

// Initialize registers the built-in backends in the default registry exactly
// once. The package-level helpers call it, so explicit use is only needed to
// control when the registration happens.
func Initialize() {
	initOnce.Do(func() { RegisterBuiltins(defaultRegistry) })
}

// Default returns the process-wide registry, initialized.
func Default() *Registry {
	Initialize()
	return defaultRegistry
}

func Register(typ string, ctor Constructor) { Default().Register(typ, ctor) }
func Supported(typ string) bool             { return Default().Supported(typ) }
func List() []string                        { return Default().List() }

func Create(typ string, cfg config.Config) (Backend, error) {
	return Default().Create(typ, cfg)
}

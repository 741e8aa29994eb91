package local

import (
	"fmt"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/internal/util"
)

// Engine selects the store holding plain entries.
type Engine string

const (
	// EngineRistretto bounds the store by entry count (TinyLFU admission).
	EngineRistretto Engine = "ristretto"
	// EngineBigcache uses a sharded byte arena with one global life window.
	// New keys are refused once MaxCapacity entries are held.
	EngineBigcache Engine = "bigcache"
)

const (
	DefaultName            = "local"
	DefaultMaxCapacity     = 10000
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = time.Minute
)

type Config struct {
	Name            string        `yaml:"name"`
	MaxCapacity     int64         `yaml:"max_capacity"`
	DefaultTTL      time.Duration `yaml:"-"`
	CleanupInterval time.Duration `yaml:"-"` // <= 0 disables the key-index janitor
	Engine          Engine        `yaml:"engine"`
	MaxSizeMB       int           `yaml:"max_size_mb"` // bigcache only; 0 = unlimited
}

// DefaultConfig mirrors the defaults applied by New.
func DefaultConfig() Config {
	return Config{
		Name:            DefaultName,
		MaxCapacity:     DefaultMaxCapacity,
		DefaultTTL:      DefaultTTL,
		CleanupInterval: DefaultCleanupInterval,
		Engine:          EngineRistretto,
	}
}

func (c Config) withDefaults() Config {
	c.MaxCapacity = util.Coalesce[int64](c.MaxCapacity, DefaultMaxCapacity)
	c.DefaultTTL = util.Coalesce[time.Duration](c.DefaultTTL, DefaultTTL)
	c.Engine = util.Coalesce[Engine](c.Engine, EngineRistretto)
	return c
}

// Validate reports missing or contradictory settings.
func (c Config) Validate() error {
	if c.Name == "" {
		return backend.Errorf(backend.CodeConfiguration, "local", "", "local cache configuration missing: name is empty")
	}
	if c.MaxCapacity < 0 {
		return backend.Errorf(backend.CodeConfiguration, "local", "", "max_capacity must not be negative")
	}
	switch c.Engine {
	case "", EngineRistretto, EngineBigcache:
	default:
		return backend.Errorf(backend.CodeConfiguration, "local", "", "unknown engine %q", c.Engine)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("local(name=%s engine=%s cap=%d ttl=%s)", c.Name, c.Engine, c.MaxCapacity, c.DefaultTTL)
}

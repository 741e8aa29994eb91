package tiercache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/local"
	"github.com/unkn0wn-root/tiercache/multi"
	"github.com/unkn0wn-root/tiercache/remote"
)

// Settings selects and configures the backend a Registry builds.
//
// Environment overrides applied by LoadSettings:
//   - TIERCACHE_ENABLED: true|false
//   - TIERCACHE_KIND: local|remote|multi
//   - TIERCACHE_CODEC: json|msgpack|cbor
//   - TIERCACHE_LOCAL_NAME, TIERCACHE_LOCAL_ENGINE
//   - TIERCACHE_REMOTE_TOPOLOGY, TIERCACHE_REMOTE_URL, TIERCACHE_REMOTE_HOSTS (comma separated)
//   - TIERCACHE_REMOTE_USERNAME, TIERCACHE_REMOTE_PASSWORD, TIERCACHE_REMOTE_DB
//   - TIERCACHE_MULTI_FALLBACK: true|false
type Settings struct {
	Enabled bool           `yaml:"enabled"`
	Kind    backend.Kind   `yaml:"kind"`
	Codec   string         `yaml:"codec"`
	Local   LocalSettings  `yaml:"local"`
	Remote  RemoteSettings `yaml:"remote"`
	Multi   MultiSettings  `yaml:"multi"`
}

type LocalSettings struct {
	Name                string `yaml:"name"`
	MaxCapacity         int64  `yaml:"max_capacity"`
	DefaultTTLSecs      int64  `yaml:"default_ttl_secs"`
	CleanupIntervalSecs int64  `yaml:"cleanup_interval_secs"`
	Engine              string `yaml:"engine"`
	MaxSizeMB           int    `yaml:"max_size_mb"`
}

type RemoteSettings struct {
	Topology         string   `yaml:"topology"`
	URL              string   `yaml:"url"`
	Hosts            []string `yaml:"hosts"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	PoolMin          int      `yaml:"pool_min"`
	PoolMax          int      `yaml:"pool_max"`
	ConnectTimeoutMs int64    `yaml:"connect_timeout_ms"`
	CommandTimeoutMs int64    `yaml:"command_timeout_ms"`
	DefaultTTLSecs   int64    `yaml:"default_ttl_secs"`
}

type MultiSettings struct {
	LocalTTLSecs    int64 `yaml:"local_ttl_secs"`
	FallbackToLocal bool  `yaml:"fallback_to_local"`
}

// DefaultSettings is an enabled local cache with every default filled in.
// LoadSettings decodes on top of it, so omitted keys keep these values.
func DefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Kind:    backend.KindLocal,
		Codec:   "json",
		Local: LocalSettings{
			Name:                local.DefaultName,
			MaxCapacity:         local.DefaultMaxCapacity,
			DefaultTTLSecs:      int64(local.DefaultTTL / time.Second),
			CleanupIntervalSecs: int64(local.DefaultCleanupInterval / time.Second),
			Engine:              string(local.EngineRistretto),
		},
		Remote: RemoteSettings{
			Topology:         string(remote.TopologyStandalone),
			URL:              remote.DefaultURL,
			PoolMin:          remote.DefaultPoolMin,
			PoolMax:          remote.DefaultPoolMax,
			ConnectTimeoutMs: remote.DefaultConnectTimeout.Milliseconds(),
			CommandTimeoutMs: remote.DefaultCommandTimeout.Milliseconds(),
			DefaultTTLSecs:   int64(remote.DefaultTTL / time.Second),
		},
		Multi: MultiSettings{
			LocalTTLSecs:    int64(multi.DefaultLocalTTL / time.Second),
			FallbackToLocal: true,
		},
	}
}

// Validate checks the settings for the selected Kind. Every failure is a
// CodeConfiguration error.
func (s Settings) Validate() error {
	if !s.Enabled {
		return backend.Errorf(backend.CodeConfiguration, "init", "", "cache must be enabled in configuration")
	}
	if _, err := codec.ByName(s.Codec); err != nil {
		return backend.Wrap(backend.CodeConfiguration, "init", "", err)
	}
	switch s.Kind {
	case backend.KindLocal:
		return s.validateLocal()
	case backend.KindRemote:
		return s.validateRemote()
	case backend.KindMulti:
		if err := s.validateLocal(); err != nil {
			return err
		}
		return s.validateRemote()
	default:
		return backend.Errorf(backend.CodeConfiguration, "init", "", "unknown cache kind %q (want local, remote or multi)", s.Kind)
	}
}

func (s Settings) validateLocal() error {
	if strings.TrimSpace(s.Local.Name) == "" {
		return backend.Errorf(backend.CodeConfiguration, "init", "", "local cache configuration missing")
	}
	return s.Local.Config().Validate()
}

func (s Settings) validateRemote() error {
	return s.Remote.Config().Validate()
}

func secs(n int64) time.Duration   { return time.Duration(n) * time.Second }
func millis(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

// Config converts the YAML form into a local.Config.
func (l LocalSettings) Config() local.Config {
	return local.Config{
		Name:            l.Name,
		MaxCapacity:     l.MaxCapacity,
		DefaultTTL:      secs(l.DefaultTTLSecs),
		CleanupInterval: secs(l.CleanupIntervalSecs),
		Engine:          local.Engine(l.Engine),
		MaxSizeMB:       l.MaxSizeMB,
	}
}

// Config converts the YAML form into a remote.Config.
func (r RemoteSettings) Config() remote.Config {
	return remote.Config{
		Topology:       remote.Topology(r.Topology),
		URL:            r.URL,
		Hosts:          r.Hosts,
		Username:       r.Username,
		Password:       r.Password,
		DB:             r.DB,
		PoolMin:        r.PoolMin,
		PoolMax:        r.PoolMax,
		ConnectTimeout: millis(r.ConnectTimeoutMs),
		CommandTimeout: millis(r.CommandTimeoutMs),
		DefaultTTL:     secs(r.DefaultTTLSecs),
	}
}

// Config converts the YAML form into a multi.Config.
func (m MultiSettings) Config() multi.Config {
	return multi.Config{LocalTTL: secs(m.LocalTTLSecs), FallbackToLocal: m.FallbackToLocal}
}

// LoadSettings reads a YAML settings file, then applies TIERCACHE_*
// environment overrides. Variables from envFiles (".env" when none are
// given) are loaded first; missing env files are ignored. An empty path skips
// the YAML step and yields DefaultSettings plus overrides.
func LoadSettings(path string, envFiles ...string) (Settings, error) {
	s := DefaultSettings()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, backend.Wrap(backend.CodeConfiguration, "load", path, err)
		}
		if err := decodeSettings(raw, &s); err != nil {
			return Settings{}, backend.Wrap(backend.CodeConfiguration, "load", path, err)
		}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return Settings{}, backend.Wrap(backend.CodeConfiguration, "load", "", err)
	}
	if err := s.applyEnv(os.Getenv); err != nil {
		return Settings{}, backend.Wrap(backend.CodeConfiguration, "load", "", err)
	}
	return s, nil
}

// ParseSettings decodes YAML on top of DefaultSettings.
func ParseSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if err := decodeSettings(raw, &s); err != nil {
		return Settings{}, backend.Wrap(backend.CodeConfiguration, "parse", "", err)
	}
	return s, nil
}

func decodeSettings(raw []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv.Load never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", f, err)
		}
	}
	return nil
}

func (s *Settings) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v := getenv(name)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
		return nil
	}

	if err := boolean("TIERCACHE_ENABLED", &s.Enabled); err != nil {
		return err
	}
	if v := getenv("TIERCACHE_KIND"); v != "" {
		s.Kind = backend.Kind(strings.ToLower(v))
	}
	str("TIERCACHE_CODEC", &s.Codec)
	str("TIERCACHE_LOCAL_NAME", &s.Local.Name)
	str("TIERCACHE_LOCAL_ENGINE", &s.Local.Engine)
	str("TIERCACHE_REMOTE_TOPOLOGY", &s.Remote.Topology)
	str("TIERCACHE_REMOTE_URL", &s.Remote.URL)
	str("TIERCACHE_REMOTE_USERNAME", &s.Remote.Username)
	str("TIERCACHE_REMOTE_PASSWORD", &s.Remote.Password)
	if v := getenv("TIERCACHE_REMOTE_HOSTS"); v != "" {
		s.Remote.Hosts = s.Remote.Hosts[:0]
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				s.Remote.Hosts = append(s.Remote.Hosts, h)
			}
		}
	}
	if v := getenv("TIERCACHE_REMOTE_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TIERCACHE_REMOTE_DB: %w", err)
		}
		s.Remote.DB = n
	}
	return boolean("TIERCACHE_MULTI_FALLBACK", &s.Multi.FallbackToLocal)
}

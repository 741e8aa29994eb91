package remote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/internal/util"
)

// Topology selects how the client reaches Redis.
type Topology string

const (
	TopologyStandalone Topology = "standalone"
	TopologyCluster    Topology = "cluster"
)

const (
	DefaultURL            = "redis://127.0.0.1:6379"
	DefaultPoolMin        = 5
	DefaultPoolMax        = 20
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Second
	DefaultTTL            = time.Hour
)

type Config struct {
	Topology Topology `yaml:"topology"`
	URL      string   `yaml:"url"`   // standalone: redis://[user:pass@]host:port[/db]
	Hosts    []string `yaml:"hosts"` // cluster seed nodes, host:port or redis:// URLs
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`

	PoolMin int `yaml:"pool_min"`
	PoolMax int `yaml:"pool_max"`

	ConnectTimeout time.Duration `yaml:"-"`
	CommandTimeout time.Duration `yaml:"-"`
	// DefaultTTL applies to Set and to SetTTL with a zero ttl. Negative means no expiry.
	DefaultTTL time.Duration `yaml:"-"`
}

// DefaultConfig returns a standalone config pointing at a local Redis.
func DefaultConfig() Config {
	return Config{
		Topology:       TopologyStandalone,
		URL:            DefaultURL,
		PoolMin:        DefaultPoolMin,
		PoolMax:        DefaultPoolMax,
		ConnectTimeout: DefaultConnectTimeout,
		CommandTimeout: DefaultCommandTimeout,
		DefaultTTL:     DefaultTTL,
	}
}

func (c Config) withDefaults() Config {
	c.Topology = util.Coalesce[Topology](c.Topology, TopologyStandalone)
	c.PoolMin = util.Coalesce(c.PoolMin, DefaultPoolMin)
	c.PoolMax = util.Coalesce(c.PoolMax, DefaultPoolMax)
	c.ConnectTimeout = util.Coalesce[time.Duration](c.ConnectTimeout, DefaultConnectTimeout)
	c.CommandTimeout = util.Coalesce[time.Duration](c.CommandTimeout, DefaultCommandTimeout)
	c.DefaultTTL = util.Coalesce[time.Duration](c.DefaultTTL, DefaultTTL)
	return c
}

// Validate checks that the topology has somewhere to connect to.
func (c Config) Validate() error {
	switch c.Topology {
	case "", TopologyStandalone:
		if strings.TrimSpace(c.URL) == "" {
			return backend.Errorf(backend.CodeConfiguration, "remote", "", "redis url is required for standalone topology")
		}
	case TopologyCluster:
		if len(c.Hosts) == 0 {
			return backend.Errorf(backend.CodeConfiguration, "remote", "", "redis hosts are required for cluster topology")
		}
	default:
		return backend.Errorf(backend.CodeConfiguration, "remote", "", "unknown topology %q", c.Topology)
	}
	if c.PoolMin < 0 || c.PoolMax < 0 {
		return backend.Errorf(backend.CodeConfiguration, "remote", "", "pool sizes must not be negative")
	}
	if c.PoolMin > 0 && c.PoolMax > 0 && c.PoolMin > c.PoolMax {
		return backend.Errorf(backend.CodeConfiguration, "remote", "", "pool_min (%d) exceeds pool_max (%d)", c.PoolMin, c.PoolMax)
	}
	return nil
}

// standaloneOptions parses URL and fills credentials the URL does not carry.
func (c Config) standaloneOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, scrubURLError(err)
	}
	if opts.Username == "" {
		opts.Username = c.Username
	}
	if opts.Password == "" {
		opts.Password = c.Password
	}
	if opts.DB == 0 {
		opts.DB = c.DB
	}
	opts.MinIdleConns = c.PoolMin
	opts.PoolSize = c.PoolMax
	opts.DialTimeout = c.ConnectTimeout
	opts.ReadTimeout = c.CommandTimeout
	opts.WriteTimeout = c.CommandTimeout
	return opts, nil
}

func (c Config) clusterOptions() (*redis.ClusterOptions, error) {
	opts := &redis.ClusterOptions{
		Username:     c.Username,
		Password:     c.Password,
		MinIdleConns: c.PoolMin,
		PoolSize:     c.PoolMax,
		DialTimeout:  c.ConnectTimeout,
		ReadTimeout:  c.CommandTimeout,
		WriteTimeout: c.CommandTimeout,
	}
	for _, h := range c.Hosts {
		h = strings.TrimSpace(h)
		if !strings.Contains(h, "://") {
			opts.Addrs = append(opts.Addrs, h)
			continue
		}
		u, err := url.Parse(h)
		if err != nil {
			return nil, fmt.Errorf("cluster host %q: %w", redactHost(h), scrubURLError(err))
		}
		if u.Host == "" {
			return nil, fmt.Errorf("cluster host %q: missing host", redactHost(h))
		}
		opts.Addrs = append(opts.Addrs, u.Host)
		if u.User != nil {
			if opts.Username == "" {
				opts.Username = u.User.Username()
			}
			if p, ok := u.User.Password(); ok && opts.Password == "" {
				opts.Password = p
			}
		}
	}
	return opts, nil
}

// redactHost strips userinfo so a connection target can be logged.
func redactHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// scrubURLError drops the raw URL a *url.Error carries, since it may hold a
// password, and keeps only the parse failure.
func scrubURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s url: %w", ue.Op, ue.Err)
	}
	return err
}

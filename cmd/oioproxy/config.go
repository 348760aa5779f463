package main

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// config is the TOML configuration file format, loaded with
// BurntSushi/toml the same way the teacher's cmd/routedns/config.go
// loads its resolver/listener/router sections (spec §5: "configuration
// format is out of scope for the core library but the reference binary
// reads TOML").
type config struct {
	Title     string
	Namespace string
	Listen    listenerConfig
	Cache     cacheConfig
	Tasks     taskConfig
	Backends  backendsConfig
}

type listenerConfig struct {
	Address string
}

type cacheConfig struct {
	HighTTL string `toml:"high-ttl"`
	HighMax int    `toml:"high-max"`
	LowTTL  string `toml:"low-ttl"`
	LowMax  int    `toml:"low-max"`

	// Backend selects the cache storage backend: "memory" (default) or
	// "redis".
	Backend string
	Redis   redisConfig
}

type redisConfig struct {
	Address   string
	Password  string
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key-prefix"`
}

type taskConfig struct {
	CacheExpireInterval string `toml:"cache-expire-interval"`
	CachePurgeInterval  string `toml:"cache-purge-interval"`
	PushDrainInterval   string `toml:"push-drain-interval"`
	PoolReloadInterval  string `toml:"pool-reload-interval"`
	NamespaceReload     string `toml:"namespace-reload-interval"`
}

type backendsConfig struct {
	ConscienceAddress string `toml:"conscience-address"`
	DirectoryAddress  string `toml:"directory-address"`
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// durationOrDefault parses a config duration string, falling back to def
// on an empty value.
func durationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	oioproxy "github.com/openio-sds/oioproxy"
)

var version = "dev"

type options struct {
	logLevel string
}

func main() {
	var opt options
	cmd := &cobra.Command{
		Use:   "oioproxy <config>",
		Short: "HTTP proxy fronting a distributed object-storage cluster",
		Long: `HTTP proxy fronting a distributed object-storage cluster.

Resolves namespaces and references through a two-tier cache, load-balances
requests across backend services, and exposes a JSON envelope HTTP API for
directory, container, content and service-registration operations.
`,
		Example: `  oioproxy proxy.toml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(opt, args[0])
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opt.logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolP("version", "v", false, "print version and exit")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println("oioproxy " + version)
			os.Exit(0)
		}
		return nil
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func start(opt options, configPath string) error {
	level, err := parseLogLevel(opt.logLevel)
	if err != nil {
		return err
	}
	oioproxy.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Namespace == "" {
		return errors.New("namespace is required")
	}
	if cfg.Backends.ConscienceAddress == "" {
		return errors.New("backends.conscience-address is required")
	}

	client := oioproxy.NewHTTPClient(cfg.Backends.ConscienceAddress)

	resolverOpt := oioproxy.ResolverOptions{
		HighTTL: durationOrDefault(cfg.Cache.HighTTL, 30*time.Second),
		HighMax: orDefaultInt(cfg.Cache.HighMax, 1000),
		LowTTL:  durationOrDefault(cfg.Cache.LowTTL, 10*time.Second),
		LowMax:  orDefaultInt(cfg.Cache.LowMax, 10000),
	}
	if cfg.Cache.Backend == "redis" {
		opts := redis.Options{
			Addr:     cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}
		resolverOpt.HighBackend = oioproxy.NewRedisCacheBackend("high", oioproxy.RedisCacheOptions{
			RedisOptions: opts, KeyPrefix: cfg.Cache.Redis.KeyPrefix + "high:",
		})
		resolverOpt.LowBackend = oioproxy.NewRedisCacheBackend("low", oioproxy.RedisCacheOptions{
			RedisOptions: opts, KeyPrefix: cfg.Cache.Redis.KeyPrefix + "low:",
		})
	}

	proxyOpt := oioproxy.ProxyOptions{
		CacheExpireInterval:  durationOrDefault(cfg.Tasks.CacheExpireInterval, 5*time.Second),
		CachePurgeInterval:   durationOrDefault(cfg.Tasks.CachePurgeInterval, 5*time.Second),
		PushDrainInterval:    durationOrDefault(cfg.Tasks.PushDrainInterval, time.Second),
		PoolReloadInterval:   durationOrDefault(cfg.Tasks.PoolReloadInterval, 10*time.Second),
		NamespaceReloadEvery: durationOrDefault(cfg.Tasks.NamespaceReload, 30*time.Second),
	}

	proxy := oioproxy.NewProxy(client, client, client, client, resolverOpt, proxyOpt)
	proxy.Start()
	defer proxy.Stop()

	addr := cfg.Listen.Address
	if addr == "" {
		addr = ":6002"
	}
	listener := oioproxy.NewListener("proxy", addr, proxy.Handler())

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		return listener.Stop()
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

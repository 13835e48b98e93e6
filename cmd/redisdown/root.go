package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/redisdown"
	rdzap "github.com/unkn0wn-root/redisdown/log/zap"
	"github.com/unkn0wn-root/redisdown/metrichooks"
	pr "github.com/unkn0wn-root/redisdown/provider"
	"github.com/unkn0wn-root/redisdown/provider/bigcache"
	"github.com/unkn0wn-root/redisdown/provider/ristretto"
)

const Version = "0.3.0"

// skipStore marks commands that run without an open store.
const skipStore = "redisdown/skip-store"

var (
	store   *redisdown.Store
	cache   pr.Provider
	metrics *metrichooks.Hooks
	logger  = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "redisdown",
		Short: "ordered key-value access to a Redis location",
		Long: fmt.Sprintf(`redisdown (v%s)

Reads, writes and range-scans records stored by redisdown: each record lives
at <location>$<key> and a sorted set <location>:z keeps the key order.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}

	versionCmd = &cobra.Command{
		Use:         "version",
		Short:       "Print the version number of redisdown",
		Annotations: map[string]string{skipStore: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "redisdown v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("host", "127.0.0.1", "Redis host")
	flags.Int("port", 6379, "Redis port")
	flags.String("password", "", "Redis password")
	flags.Bool("tls", false, "connect with TLS")
	flags.String("url", "", "redis:// or rediss:// URL; overrides host, port, password and tls")
	flags.String("location", "rd", "location (key namespace) to operate on")
	flags.Int("hwm", redisdown.DefaultHighWaterMark, "iterator page size")
	flags.Duration("timeout", 10*time.Second, "per-command timeout")
	flags.String("read-cache", "none", "process-local read cache (none, ristretto, bigcache)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("metrics", false, "print store metrics in Prometheus format on exit")

	rootCmd.AddCommand(getCmd, putCmd, delCmd, scanCmd, batchCmd, destroyCmd, shellCmd, versionCmd)
}

// initConfig loads env files and binds REDISDOWN_* variables.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("redisdown")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func connOptions() redisdown.ConnOptions {
	return redisdown.ConnOptions{
		Host:     viper.GetString("host"),
		Port:     viper.GetInt("port"),
		Password: viper.GetString("password"),
		TLS:      viper.GetBool("tls"),
		URL:      viper.GetString("url"),
	}
}

func newLogger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	return cfg.Build()
}

func newReadCache(ctx context.Context) (pr.Provider, error) {
	switch kind := viper.GetString("read-cache"); kind {
	case "", "none":
		return nil, nil
	case "ristretto":
		p, err := ristretto.New(ristretto.Config{NumCounters: 1e5, MaxCost: 64 << 20, BufferItems: 64, TTL: time.Minute})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "bigcache":
		p, err := bigcache.New(ctx, bigcache.Config{LifeWindow: time.Minute, HardMaxCacheSizeMB: 64})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("invalid read cache %q", kind)
	}
}

func openStore(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	l, err := newLogger()
	if err != nil {
		return err
	}
	logger = l
	if cmd.Annotations[skipStore] != "" {
		return nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cache, err = newReadCache(cmd.Context())
	if err != nil {
		return err
	}
	metrics = metrichooks.New(nil, "redisdown")

	store, err = redisdown.Open(ctx, viper.GetString("location"), redisdown.Options{
		Conn:          connOptions(),
		HighWaterMark: viper.GetInt("hwm"),
		ReadCache:     cache,
		Logger:        rdzap.New(logger),
		Hooks:         metrics,
	})
	return err
}

func closeStore(cmd *cobra.Command, _ []string) error {
	defer func() { _ = logger.Sync() }()
	if store == nil {
		return nil
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	err := store.Close(ctx)
	store = nil
	if cache != nil {
		if cerr := cache.Close(ctx); cerr != nil {
			logger.Warn("read cache close failed", zap.Error(cerr))
		}
		cache = nil
	}
	if viper.GetBool("metrics") {
		metrics.WritePrometheus(os.Stderr)
	}
	return err
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if d := viper.GetDuration("timeout"); d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

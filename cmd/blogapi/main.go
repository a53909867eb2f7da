package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/WhileEndless/go-httpmessage/pkg/cache"
	"github.com/WhileEndless/go-httpmessage/pkg/config"
	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/version"
)

var (
	// CLI flags
	configFlag   string
	serveFlag    bool
	listenFlag   string
	tokenFlag    string
	logLevelFlag string
	logFileFlag  string
	cacheFlag    string
	dbFlag       string
	compressFlag bool
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML config file")
	flag.BoolVar(&serveFlag, "serve", false, "Serve the API instead of running the demo")
	flag.StringVar(&listenFlag, "listen", "", "Address to listen on (default :8080)")
	flag.StringVar(&tokenFlag, "token", "", "Bearer token accepted by the API (default demo-token)")
	flag.StringVar(&logLevelFlag, "log-level", "", "Log level: trace, debug, info, warn, error")
	flag.StringVar(&logFileFlag, "log-file", "", "Log file to use (in addition to stdout)")
	flag.StringVar(&cacheFlag, "cache", "", "Response cache driver: memory, sqlite or off")
	flag.StringVar(&dbFlag, "db", "", "SQLite cache file (empty for in-memory)")
	flag.BoolVar(&compressFlag, "compress", false, "Compress responses")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}

	logger, closer, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot set up logging")
	}
	defer closer.Close()
	logger = logger.With().Str("version", version.GetVersion()).Logger()
	adapter := logging.NewAdapter(logger)

	var provider cache.Provider
	if serveFlag && cfg.Cache.Driver != "off" {
		provider, err = cache.Open(cfg.Cache)
		if err != nil {
			logger.Fatal().Err(err).Msg("Cannot open cache")
		}
		defer provider.Close()
	}

	pipeline := newPipeline(cfg, adapter, provider)

	if !serveFlag {
		if err := runDemo(os.Stdout, pipeline, cfg.Token); err != nil {
			logger.Fatal().Err(err).Msg("Demo failed")
		}
		return
	}

	srv := newServer(cfg.Listen, newRouter(pipeline, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Msgf("Serving blog API on %s (cache: %s, compression: %v)", cfg.Listen, cfg.Cache.Driver, cfg.Compression.Enabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// loadConfig reads -config if given and lets the other flags override it
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if listenFlag != "" {
		cfg.Listen = listenFlag
	}
	if tokenFlag != "" {
		cfg.Token = tokenFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if logFileFlag != "" {
		cfg.Log.File = logFileFlag
	}
	if cacheFlag != "" {
		cfg.Cache.Driver = cacheFlag
	}
	if dbFlag != "" {
		cfg.Cache.DSN = dbFlag
	}
	if compressFlag {
		cfg.Compression.Enabled = true
	}

	cfg.SetDefaults()
	return cfg, nil
}

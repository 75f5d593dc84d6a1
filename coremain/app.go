package coremain

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vpetersson/ipgeolocation/mlog"
	"github.com/vpetersson/ipgeolocation/pkg/cache"
	"github.com/vpetersson/ipgeolocation/pkg/cache/mem_cache"
	"github.com/vpetersson/ipgeolocation/pkg/cache/redis_cache"
	"github.com/vpetersson/ipgeolocation/pkg/geoip"
	"github.com/vpetersson/ipgeolocation/pkg/httpapi"
	"github.com/vpetersson/ipgeolocation/pkg/lookup"
	"github.com/vpetersson/ipgeolocation/pkg/mcp"
	"github.com/vpetersson/ipgeolocation/pkg/safe_close"
	"github.com/vpetersson/ipgeolocation/pkg/server"
	"github.com/vpetersson/ipgeolocation/pkg/tzdb"
)

// RunServer wires the whole service and blocks until shutdown.
func RunServer(cfg *Config) error {
	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	sc := safe_close.NewSafeClose()
	metricsReg := newMetricsReg()

	geoReader, err := geoip.NewReader(geoip.ReaderOpts{
		Path:      cfg.GeoIPDBPath,
		WatchFile: cfg.WatchDB,
		Logger:    lg.Named("geoip"),
	})
	if err != nil {
		return fmt.Errorf("failed to open geoip database: %w", err)
	}
	defer geoReader.Close()

	finder, err := tzdb.NewTzfFinder()
	if err != nil {
		return fmt.Errorf("failed to init timezone finder: %w", err)
	}

	backend := newCacheBackend(cfg, lg)
	defer backend.Close()

	resolver, err := lookup.NewResolver(lookup.ResolverOpts{
		GeoDB:      geoReader,
		TzFinder:   finder,
		Backend:    backend,
		TTL:        time.Duration(cfg.CacheTTLSecs) * time.Second,
		Logger:     lg.Named("lookup"),
		MetricsReg: prefixedReg(metricsReg),
	})
	if err != nil {
		return fmt.Errorf("failed to init resolver: %w", err)
	}

	registry := mcp.NewRegistry()
	mcp.RegisterLookupTools(registry, resolver)
	mcp.RegisterResources(registry)

	engine, err := mcp.NewEngine(mcp.EngineOpts{
		Registry:      registry,
		ServerName:    "ipgeolocation",
		ServerVersion: Version,
		Logger:        lg.Named("mcp"),
	})
	if err != nil {
		return err
	}

	broadcaster := mcp.NewBroadcaster(0)
	defer broadcaster.Close()

	handler, err := httpapi.NewHandler(httpapi.HandlerOpts{
		Resolver:    resolver,
		Engine:      engine,
		Registry:    registry,
		Broadcaster: broadcaster,
		AltSvc:      altSvc(cfg),
		Logger:      lg.Named("http"),
		MetricsReg:  prefixedReg(metricsReg),
	})
	if err != nil {
		return err
	}

	// Main TCP listener.
	l, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.BindAddress, err)
	}
	if cfg.ProxyProtocol {
		l = server.WrapProxyProto(l)
	}
	tcpSrv := server.NewServer(server.ServerOpts{Logger: lg, Handler: handler})
	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			lg.Info("starting http server", zap.String("addr", cfg.BindAddress))
			errChan <- tcpSrv.ServeHTTP(l)
		}()
		select {
		case err := <-errChan:
			if err != nil && err != server.ErrServerClosed {
				sc.SendCloseSignal(err)
			}
		case <-closeSignal:
			tcpSrv.Close()
		}
	})

	// Reduced datagram listener.
	if cfg.HTTP3Enabled {
		ql, err := server.ListenQUIC(cfg.HTTP3BindAddress, cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			sc.SendCloseSignal(nil)
			sc.Done()
			sc.CloseWait()
			return fmt.Errorf("failed to start http3 listener: %w", err)
		}
		h3Srv := server.NewServer(server.ServerOpts{Logger: lg, Handler: handler.Reduced()})
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			errChan := make(chan error, 1)
			go func() {
				lg.Info("starting http3 server", zap.String("addr", cfg.HTTP3BindAddress))
				errChan <- h3Srv.ServeH3(ql)
			}()
			select {
			case err := <-errChan:
				if err != nil && err != server.ErrServerClosed {
					sc.SendCloseSignal(err)
				}
			case <-closeSignal:
				h3Srv.Close()
			}
		})
	}

	// Ops listener: metrics and pprof.
	if len(cfg.APIAddress) > 0 {
		apiMux := http.NewServeMux()
		apiMux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
		apiMux.HandleFunc("/debug/pprof/", pprof.Index)
		apiMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		apiMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		apiMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		apiMux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		apiServer := &http.Server{
			Addr:    cfg.APIAddress,
			Handler: apiMux,
		}
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			errChan := make(chan error, 1)
			go func() {
				lg.Info("starting api http server", zap.String("addr", cfg.APIAddress))
				errChan <- apiServer.ListenAndServe()
			}()
			select {
			case err := <-errChan:
				sc.SendCloseSignal(err)
			case <-closeSignal:
				apiServer.Close()
			}
		})
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		lg.Info("signal received, exiting", zap.Stringer("signal", s))
		sc.SendCloseSignal(nil)
	}()

	broadcaster.Publish("notifications/server/ready", map[string]string{"version": Version})

	<-sc.ReceiveCloseSignal()
	broadcaster.Publish("notifications/server/shutdown", nil)
	sc.Done()
	sc.CloseWait()
	return sc.Err()
}

// RunStdio serves the tool protocol on stdin/stdout until EOF.
func RunStdio(cfg *Config) error {
	// The protocol rides stdout, so logs must go elsewhere.
	if len(cfg.Log.File) == 0 {
		cfg.Log.Level = "warn"
	}
	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	geoReader, err := geoip.NewReader(geoip.ReaderOpts{
		Path:   cfg.GeoIPDBPath,
		Logger: lg.Named("geoip"),
	})
	if err != nil {
		return fmt.Errorf("failed to open geoip database: %w", err)
	}
	defer geoReader.Close()

	finder, err := tzdb.NewTzfFinder()
	if err != nil {
		return fmt.Errorf("failed to init timezone finder: %w", err)
	}

	backend := mem_cache.NewMemCache(cfg.CacheSize, time.Minute)
	defer backend.Close()

	resolver, err := lookup.NewResolver(lookup.ResolverOpts{
		GeoDB:    geoReader,
		TzFinder: finder,
		Backend:  backend,
		TTL:      time.Duration(cfg.CacheTTLSecs) * time.Second,
		Logger:   lg.Named("lookup"),
	})
	if err != nil {
		return err
	}

	registry := mcp.NewRegistry()
	mcp.RegisterLookupTools(registry, resolver)
	mcp.RegisterResources(registry)

	engine, err := mcp.NewEngine(mcp.EngineOpts{
		Registry:      registry,
		ServerName:    "ipgeolocation",
		ServerVersion: Version,
		Logger:        lg.Named("mcp"),
	})
	if err != nil {
		return err
	}

	transport, err := mcp.NewStdioTransport(mcp.StdioTransportOpts{
		Engine: engine,
		In:     os.Stdin,
		Out:    os.Stdout,
		Logger: lg.Named("stdio"),
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return transport.Serve(ctx)
}

func newCacheBackend(cfg *Config, lg *zap.Logger) cache.Backend {
	if len(cfg.RedisAddr) > 0 {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rc, err := redis_cache.NewRedisCache(redis_cache.RedisCacheOpts{
			Client:       client,
			ClientCloser: client,
			Logger:       lg.Named("redis"),
		})
		if err == nil {
			lg.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
			return rc
		}
		lg.Warn("redis cache init failed, falling back to memory", zap.Error(err))
		client.Close()
	}
	return mem_cache.NewMemCache(cfg.CacheSize, time.Minute)
}

// altSvc builds the Alt-Svc value advertising the datagram listener.
func altSvc(cfg *Config) string {
	if !cfg.HTTP3Enabled {
		return ""
	}
	_, port, err := net.SplitHostPort(cfg.HTTP3BindAddress)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`h3=":%s"; ma=86400`, port)
}

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func prefixedReg(reg *prometheus.Registry) prometheus.Registerer {
	return prometheus.WrapRegistererWithPrefix("ipgeolocation_", reg)
}

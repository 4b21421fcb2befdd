// Package relay wires the fleetrelay server: the websocket relay core,
// the REST CRUD surface, the cached data access layer and the optional
// MQTT telemetry ingress.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"fleetrelay.io/fleetrelay/internal/relay/api"
	"fleetrelay.io/fleetrelay/internal/relay/bridge"
	"fleetrelay.io/fleetrelay/internal/relay/cache"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
	"fleetrelay.io/fleetrelay/internal/relay/ignition"
	"fleetrelay.io/fleetrelay/internal/relay/socket"
	"fleetrelay.io/fleetrelay/internal/relay/storage"
	"fleetrelay.io/fleetrelay/internal/relay/store"
	"fleetrelay.io/fleetrelay/internal/relay/telemetry"
	"fleetrelay.io/fleetrelay/pkg/log"
	"fleetrelay.io/fleetrelay/pkg/mqtt"
)

const shutdownTimeout = 10 * time.Second

// RelayServer is the single-process relay instance. Room state lives in
// memory; running more than one instance partitions clients and sensors
// with no cross-instance visibility.
type RelayServer struct {
	cfg *Config

	db          *gorm.DB
	redisCache  *cache.Redis
	httpServer  *http.Server
	bridge      *bridge.Bridge
	attachments storage.Provider

	logger log.Logger
}

// NewRelayServer builds the full dependency graph from the config.
func NewRelayServer(cfg *Config) (*RelayServer, error) {
	logger := log.WithName("relay")

	db, err := gorm.Open(mysql.Open(cfg.Mysql.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Mysql.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Mysql.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Mysql.MaxConnectionLifetime)

	if err := db.AutoMigrate(&model.Vehicle{}, &model.Maintenance{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	redisCache := cache.NewRedis(cfg.Redis)

	vehicles := store.NewVehicleStore(db, redisCache)
	maintenance := store.NewMaintenanceStore(db, redisCache)

	registry := socket.NewRegistry()
	hub := socket.NewHub(registry)
	ignitionMachine := ignition.New(vehicles, hub)
	ingestor := telemetry.New(vehicles, hub)
	wsHandler := socket.NewHandler(registry, hub, ignitionMachine, ingestor, cfg.HTTP.AllowedOrigins)

	var attachments storage.Provider
	if cfg.S3.Enabled {
		attachments, err = storage.NewMinIOProvider(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to init attachment storage: %w", err)
		}
	}

	s := &RelayServer{
		cfg:         cfg,
		db:          db,
		redisCache:  redisCache,
		attachments: attachments,
		logger:      logger,
	}

	router := mux.NewRouter()
	router.Handle("/ws", wsHandler)
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	api.New(vehicles, maintenance, attachments).Register(router)

	s.httpServer = &http.Server{
		Handler:           corsMiddleware(cfg.HTTP.AllowedOrigins, router),
		ReadHeaderTimeout: cfg.HTTP.Timeout,
	}

	if cfg.Mqtt.Enabled {
		client, err := mqtt.NewClient(cfg.Mqtt.ToClientConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		s.bridge = bridge.New(client, ingestor, cfg.Mqtt.TopicRoot)
	}

	return s, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *RelayServer) Run(ctx context.Context) error {
	defer s.close()

	if s.attachments != nil {
		if err := s.attachments.CheckBucket(ctx); err != nil {
			s.logger.Warn("Attachment bucket unavailable, uploads will fail until it recovers", "err", err)
		}
	}

	listener, err := net.Listen(s.cfg.HTTP.Network, s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.HTTP.Addr, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", s.cfg.HTTP.Addr)
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	if s.bridge != nil {
		g.Go(func() error {
			return s.bridge.Run(ctx)
		})
	}

	return g.Wait()
}

func (s *RelayServer) close() {
	if err := s.redisCache.Close(); err != nil {
		s.logger.Warn("Failed to close cache client", "err", err)
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Warn("Failed to close database pool", "err", err)
		}
	}
}

func (s *RelayServer) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyz gates on the database only. A dead cache backend degrades to
// misses and does not make the relay unready.
func (s *RelayServer) readyz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unreachable"))
		return
	}

	if err := s.redisCache.Ping(r.Context()); err != nil {
		s.logger.Warn("Cache backend unreachable, serving uncached", "err", err)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// corsMiddleware answers browser preflights for the configured origins.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

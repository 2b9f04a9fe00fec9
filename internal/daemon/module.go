// Package daemon composes the charlad process: configuration, storage,
// services and the HTTP API, wired through fx.
package daemon

import (
	"context"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/bus"
	"github.com/charla-im/charla/internal/config"
	"github.com/charla-im/charla/internal/contacts"
	"github.com/charla-im/charla/internal/home"
	"github.com/charla-im/charla/internal/httpapi"
	"github.com/charla-im/charla/internal/lock"
	"github.com/charla-im/charla/internal/logging"
	"github.com/charla-im/charla/internal/store"
)

// Params holds the resolved daemon options passed to the fx module.
type Params struct {
	HomeDir string
	Listen  string // optional override for testing; empty = use config
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideLocal,
			provideTokens,
			provideAuth,
			provideContactBackend,
			provideContacts,
			provideAPI,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := home.EnsureDir(p.HomeDir); err != nil {
		return nil, err
	}
	return logging.New(home.LogPath(p.HomeDir))
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	path := home.ConfigPath(p.HomeDir)
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		cfg = config.Default()
		logger.Info("no config found, writing defaults", zap.String("path", path))
	} else if err != nil {
		return nil, err
	}

	if cfg.TokenKey == "" {
		key, err := auth.GenerateKeyHex()
		if err != nil {
			return nil, err
		}
		cfg.TokenKey = key
		logger.Info("generated token key")
	}
	if err := config.Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring home lock", zap.String("home", p.HomeDir))
	l, err := lock.Acquire(p.HomeDir)
	if err != nil {
		return nil, err
	}
	logger.Info("home lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := home.DBPath(p.HomeDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideLocal(db *store.DB, b *bus.Bus, logger *zap.Logger) *backend.Local {
	return backend.NewLocal(db, b, logger)
}

func provideTokens(cfg *config.Config) (*auth.TokenService, error) {
	return auth.NewTokenService(cfg.TokenKey, time.Duration(cfg.TokenTTLHours)*time.Hour)
}

func provideAuth(db *store.DB, tokens *auth.TokenService, logger *zap.Logger) *auth.Service {
	return auth.NewService(db, tokens, logger)
}

func provideContactBackend(p Params, cfg *config.Config, local *backend.Local, logger *zap.Logger) backend.ContactBackend {
	if cfg.ContactsBackend == "file" {
		path := home.ContactsPath(p.HomeDir)
		logger.Info("using file contact store", zap.String("path", path))
		return contacts.NewFileStore(path)
	}
	return local
}

func provideContacts(b backend.ContactBackend, logger *zap.Logger) *contacts.Service {
	return contacts.NewService(b, logger)
}

func provideAPI(authSvc *auth.Service, contactSvc *contacts.Service, local *backend.Local, cfg *config.Config, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(authSvc, contactSvc, local, local, cfg.AllowedOrigins, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

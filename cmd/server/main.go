package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal/api"
	"portal/internal/backend"
	"portal/internal/config"
	"portal/internal/devbackend"
	"portal/internal/logging"
	"portal/internal/pg"
	"portal/internal/registry"
	"portal/internal/session"
)

func main() {
	// 0. .env, конфиг, логгер
	config.LoadDotEnv()
	cfg, err := config.Load("portal.json", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Реестр ролей: встроенный + файлы из registryDir
	reg, err := registry.Load(cfg.RegistryDir)
	if err != nil {
		log.Fatal("registry load failed", zap.Error(err))
	}
	if issues := reg.Lint(); len(issues) > 0 {
		for _, it := range issues {
			log.Error("registry issue", zap.String("role", it.Role), zap.String("endpoint", it.Endpoint),
				zap.String("code", it.Code), zap.String("message", it.Message))
		}
		log.Fatal("registry has blocking issues", zap.Int("issues", len(issues)))
	}
	log.Info("registry loaded", zap.Int("roles", len(reg.Roles())), zap.String("dir", cfg.RegistryDir))

	// 2. dev-бэкенд в том же процессе (опционально)
	var mounts []api.Mount
	apiBase := cfg.APIBase
	if cfg.DevBackend {
		dev, db, err := devBackend(context.Background(), cfg, log)
		if err != nil {
			log.Fatal("dev backend failed", zap.Error(err))
		}
		if db != nil {
			defer db.Close()
		}
		mounts = append(mounts, dev.Mount)
		apiBase = "http://127.0.0.1:" + cfg.Port + "/api/v1"
	}

	// 3. Клиент, сессия, портал
	client := backend.NewClient(apiBase,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(log),
	)
	store, err := session.Open(cfg.SessionFile)
	if err != nil {
		log.Fatal("session store failed", zap.Error(err))
	}
	sessions := session.NewManager(store, client, reg, log)
	portal := api.NewPortal(reg, client, sessions,
		api.WithLogger(log),
		api.WithNoticeTTL(cfg.NoticeTTL),
		api.WithRegistryDir(cfg.RegistryDir),
	)
	defer portal.Close()

	// 4. REST API
	log.Info("starting portal", zap.String("addr", cfg.Addr()), zap.String("apiBase", apiBase), zap.Bool("devBackend", cfg.DevBackend))
	if err := api.RunServer(cfg.Addr(), portal, log, mounts...); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// devBackend: Postgres, если задан dbUrl, иначе память
func devBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*devbackend.Server, *sql.DB, error) {
	var (
		store devbackend.Store = devbackend.NewMemoryStore()
		db    *sql.DB
	)
	if url := strings.TrimSpace(cfg.DBURL); url != "" {
		var err error
		db, err = pg.Open(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		rs := pg.NewRecordStore(db, pg.DefaultTable)
		if cfg.AutoMigrate {
			if err := pg.ApplyDDL(ctx, db, pg.RecordsDDL(pg.DefaultTable), log.Named("pg")); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		store = rs
		log.Info("dev backend on postgres", zap.Bool("autoMigrate", cfg.AutoMigrate))
	}
	dev := devbackend.New(store,
		devbackend.WithLogger(log),
		devbackend.WithUsers(devbackend.DefaultUsers()...),
		devbackend.WithAggregates(devbackend.DefaultAggregates()),
		devbackend.WithEnvelope(cfg.DevEnvelope),
	)
	return dev, db, nil
}

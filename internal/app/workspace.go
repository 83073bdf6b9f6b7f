package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"loklagbe/internal/config"
	"loklagbe/internal/db"
	"loklagbe/internal/engine"
	"loklagbe/internal/logging"
	"loklagbe/internal/migrate"
	"loklagbe/internal/notify"
)

// Workspace is an opened marketplace directory: its database, config and the
// engine built over them.
type Workspace struct {
	Dir    string
	DB     *sql.DB
	Config *config.Config
	Engine engine.Engine
	Logger *zap.Logger
}

// Open opens the workspace database, applies pending migrations and loads the
// config file, falling back to defaults when none exists.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Workspace, error) {
	logger = logging.OrNop(logger)
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	applied, err := migrate.MigrateContext(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if applied > 0 {
		logger.Info("migrations applied", zap.Int("count", applied), zap.String("db", db.Path(dir)))
	}
	e := engine.New(conn, cfg)
	e.Logger = logger.Named("engine")
	e.Hub = notify.NewHub(0, logger.Named("hub"))
	return &Workspace{Dir: dir, DB: conn, Config: cfg, Engine: e, Logger: logger}, nil
}

// Init writes the default config file if missing, opens the workspace and
// makes adminID an administrator.
func Init(ctx context.Context, dir, adminID, adminName string, logger *zap.Logger) (*Workspace, bool, error) {
	created := false
	path := config.Path(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := db.EnsureWorkspace(dir); err != nil {
			return nil, false, err
		}
		if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
			return nil, false, fmt.Errorf("write config: %w", err)
		}
		created = true
	} else if err != nil {
		return nil, false, err
	}
	ws, err := Open(ctx, dir, logger)
	if err != nil {
		return nil, created, err
	}
	if adminID != "" {
		if _, err := ws.Engine.EnsureAdmin(ctx, adminID, adminName); err != nil {
			ws.Close()
			return nil, created, fmt.Errorf("seed admin: %w", err)
		}
	}
	return ws, created, nil
}

func (w *Workspace) Close() error {
	if w == nil || w.DB == nil {
		return nil
	}
	if w.Engine.Hub != nil {
		w.Engine.Hub.Close()
	}
	return w.DB.Close()
}

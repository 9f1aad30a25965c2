package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/internal/config"
)

// Migrator applies the document store schema once per process. The remote may
// be unreachable at boot, so EnsureApplied is retried when connectivity returns.
type Migrator struct {
	dsn    string
	dbName string
	cfg    config.MigrationsConfig
	logger *zap.Logger

	mu      sync.Mutex
	applied bool
}

func NewMigrator(db config.DatabaseConfig, cfg config.MigrationsConfig, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{dsn: db.URL, dbName: db.Name, cfg: cfg, logger: logger.Named("migrations")}
}

// Applied reports whether migrations ran successfully or are disabled.
func (m *Migrator) Applied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied || !m.cfg.Enabled
}

// EnsureApplied runs pending migrations unless a previous call already succeeded.
func (m *Migrator) EnsureApplied() error {
	if !m.cfg.Enabled {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied {
		return nil
	}
	if err := m.run(); err != nil {
		return err
	}
	m.applied = true
	return nil
}

func (m *Migrator) run() error {
	sqlDB, err := sql.Open("postgres", m.dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(m.cfg.Path))
	mig, err := migrate.NewWithDatabaseInstance(sourceURL, m.dbName, driver)
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := mig.Version()
	m.logger.Info("document store migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

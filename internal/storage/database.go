package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the relational driver and sizes its connection pool.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a database connection for the configured driver ("sqlite" or "postgres").
// SQLite connections always enforce foreign keys. Constraint violations are translated
// into gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(opts.DSN))
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.NewSlogLogger(slog.Default(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			LogLevel:                  logger.Warn,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table from the model structs.
// It is idempotent and can be run multiple times safely.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Tag{},
		&File{},
		&Note{},
		&Cabinet{},
		&CabinetMaterial{},
		&FileGrant{},
		&IndexTask{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	for _, stmt := range rootNameIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create root name index: %w", err)
		}
	}
	return nil
}

// rootNameIndexes keep root tag and cabinet names unique per owner. The
// parent/name indexes treat NULL parents as distinct, so roots need their own.
var rootNameIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_tag_root_name ON tags (owner_id, name) WHERE parent_id IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_cabinet_root_name ON cabinets (owner_id, name) WHERE parent_id IS NULL",
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// sqliteDSN enables foreign key enforcement and a busy timeout on every pooled connection.
func sqliteDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "_foreign_keys=") && !strings.Contains(dsn, "_fk=") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout=") && !strings.Contains(dsn, "_timeout=") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

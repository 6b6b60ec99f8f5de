package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-tutor/internal/config"
	"quiz-tutor/internal/logger"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers "sqlite"
)

func init() {
	// go-ora takes :name placeholders; sqlx does not know either driver name out of the box.
	sqlx.BindDriver(config.DriverOracle, sqlx.NAMED)
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, dbCfg config.DBConfig) (*sqlx.DB, error) {
	switch dbCfg.Driver {
	case config.DriverOracle:
		return openOracle(ctx, dbCfg)
	case config.DriverSQLite:
		return OpenSQLite(ctx, dbCfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
}

func openOracle(ctx context.Context, dbCfg config.DBConfig) (*sqlx.DB, error) {
	dsn := go_ora.BuildUrl(dbCfg.Host, dbCfg.Port, dbCfg.DBName, dbCfg.User, dbCfg.Password, nil)

	db, err := sqlx.Open(config.DriverOracle, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Oracle database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Oracle database: %w", err)
	}

	logger.Get().Info("Connected to Oracle database",
		zap.String("host", dbCfg.Host), zap.Int("port", dbCfg.Port), zap.String("service", dbCfg.DBName))
	return db, nil
}

// OpenSQLite opens a SQLite database file, or a private in-memory database for ":memory:".
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open(config.DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer keeps sqlite free of SQLITE_BUSY, and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Get().Info("Opened sqlite database", zap.String("path", path))
	return db, nil
}

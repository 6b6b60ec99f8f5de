package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"quiz-tutor/internal/config"
	"quiz-tutor/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/oracle/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date for the given driver.
func RunMigrations(db *sqlx.DB, driver string) error {
	switch driver {
	case config.DriverSQLite:
		return migrateSQLite(db)
	case config.DriverOracle:
		return migrateOracle(db)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
}

func migrateSQLite(db *sqlx.DB) error {
	source, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("could not open sqlite migrations: %w", err)
	}

	target, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	// m.Close is not called: it would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", source, config.DriverSQLite, target)
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Get().Info("Migrations completed successfully", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// migrateOracle executes every embedded *.up.sql in name order. Objects that already exist
// (ORA-00955) are skipped so the command can be re-run.
func migrateOracle(db *sqlx.DB) error {
	dir := "migrations/oracle"
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", entry.Name(), err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				if strings.Contains(err.Error(), "ORA-00955") {
					logger.Get().Debug("Object already exists, skipping", zap.String("file", entry.Name()))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", entry.Name(), err)
			}
		}
		logger.Get().Info("Executed migration", zap.String("file", entry.Name()))
	}

	logger.Get().Info("Migrations completed successfully")
	return nil
}

// splitStatements splits a script on ";" and drops empty statements. Oracle rejects a trailing
// semicolon on plain SQL executed through the driver.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/ftzflow/internal/audit/domain"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&partdomain.Part{},
		&inventorydomain.Lot{},
		&inventorydomain.Transaction{},
		&preshipmentdomain.Preshipment{},
		&preshipmentdomain.PreshipmentItem{},
		&entrysummarydomain.EntrySummary{},
		&entrysummarydomain.LineItem{},
		&entrysummarydomain.FTZMerchandiseStatus{},
		&entrysummarydomain.GrandTotals{},
		&entrysummarydomain.Group{},
		&entrysummarydomain.GroupPreshipment{},
		&entrysummarydomain.NumberSequence{},
		&auditdomain.AuditLog{},
	}
}

// Apply brings the schema up to date. Postgres runs the embedded SQL
// migrations; other dialects fall back to gorm's AutoMigrate.
func Apply(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "postgres", "":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	default:
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

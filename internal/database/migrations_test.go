package database

import (
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func openMigrationDatabase(testContext *testing.T) *gorm.DB {
	testContext.Helper()
	databasePath := filepath.Join(testContext.TempDir(), "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&portfolios.PortfolioRecord{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}
	return database
}

func insertRecord(testContext *testing.T, database *gorm.DB, record portfolios.PortfolioRecord) {
	testContext.Helper()
	record.SectionsJSON = "[]"
	record.ThemeJSON = "{}"
	record.SettingsJSON = "{}"
	if err := database.Create(&record).Error; err != nil {
		testContext.Fatalf("failed to insert portfolio: %v", err)
	}
}

func TestApplyMigrationsRepairsLegacyPortfolios(testContext *testing.T) {
	database := openMigrationDatabase(testContext)

	insertRecord(testContext, database, portfolios.PortfolioRecord{
		PortfolioID: "p-legacy",
		OwnerID:     "google:12345",
		Name:        "Legacy",
		Slug:        "legacy-1",
		Status:      "archived",
		Version:     1,
	})
	insertRecord(testContext, database, portfolios.PortfolioRecord{
		PortfolioID: "p-current",
		OwnerID:     "user-9",
		Name:        "Current",
		Slug:        "current-1",
		Status:      string(portfolios.StatusPublished),
		Version:     4,
	})
	if err := database.Model(&portfolios.PortfolioRecord{}).Where("portfolio_id = ?", "p-legacy").Update("version", 0).Error; err != nil {
		testContext.Fatalf("failed to zero version: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	if err := applyMigrations(database, zap.New(core)); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var legacy portfolios.PortfolioRecord
	if err := database.Where("portfolio_id = ?", "p-legacy").Take(&legacy).Error; err != nil {
		testContext.Fatalf("failed to reload portfolio: %v", err)
	}
	if legacy.OwnerID != "12345" {
		testContext.Fatalf("expected owner prefix to be stripped, got %q", legacy.OwnerID)
	}
	if legacy.Status != string(portfolios.StatusDraft) {
		testContext.Fatalf("expected unknown status to become draft, got %q", legacy.Status)
	}
	if legacy.Version != 1 {
		testContext.Fatalf("expected version to be raised to 1, got %d", legacy.Version)
	}

	var current portfolios.PortfolioRecord
	if err := database.Where("portfolio_id = ?", "p-current").Take(&current).Error; err != nil {
		testContext.Fatalf("failed to reload portfolio: %v", err)
	}
	if current.OwnerID != "user-9" || current.Status != string(portfolios.StatusPublished) || current.Version != 4 {
		testContext.Fatalf("expected current portfolio untouched, got %#v", current)
	}

	for _, name := range []string{migrationStripOwnerProviderPrefix, migrationNormalizePortfolioState} {
		var record migrationRecord
		if err := database.Where("name = ?", name).Take(&record).Error; err != nil {
			testContext.Fatalf("expected migration record %s: %v", name, err)
		}
		if record.AppliedAtSeconds == 0 {
			testContext.Fatalf("expected migration timestamp to be set for %s", name)
		}
	}
	if logs.FilterMessage("database migration applied").Len() != 2 {
		testContext.Fatalf("expected two migration log entries, got %d", logs.FilterMessage("database migration applied").Len())
	}
}

func TestApplyMigrationsRunsOnce(testContext *testing.T) {
	database := openMigrationDatabase(testContext)
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	insertRecord(testContext, database, portfolios.PortfolioRecord{
		PortfolioID: "p-late",
		OwnerID:     "google:777",
		Name:        "Late",
		Slug:        "late-1",
		Status:      string(portfolios.StatusDraft),
		Version:     1,
	})

	core, logs := observer.New(zapcore.InfoLevel)
	if err := applyMigrations(database, zap.New(core)); err != nil {
		testContext.Fatalf("failed to re-apply migrations: %v", err)
	}
	if logs.Len() != 0 {
		testContext.Fatalf("expected no migrations on second run, got %d log entries", logs.Len())
	}

	var late portfolios.PortfolioRecord
	if err := database.Where("portfolio_id = ?", "p-late").Take(&late).Error; err != nil {
		testContext.Fatalf("failed to reload portfolio: %v", err)
	}
	if late.OwnerID != "google:777" {
		testContext.Fatalf("expected recorded migration not to run again, got %q", late.OwnerID)
	}
}

func TestOpenSQLiteCreatesSchema(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "modulux.db")
	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		testContext.Fatalf("failed to access sql db: %v", err)
	}
	defer sqlDB.Close()

	for _, table := range []string{"portfolios", "user_identities", "db_migrations"} {
		if !database.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %s", table)
		}
	}
	if _, err := OpenSQLite("", nil); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}

package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationStripOwnerProviderPrefix = "2026-03-01_strip_owner_provider_prefix"
	migrationNormalizePortfolioState  = "2026-03-08_normalize_portfolio_state"

	legacyOwnerPrefix = "google:"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationStripOwnerProviderPrefix, apply: stripOwnerProviderPrefix},
		{name: migrationNormalizePortfolioState, apply: normalizePortfolioState},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", migration.name, err)
		}
		logger.Info("database migration applied", zap.String("migration", migration.name))
	}
	return nil
}

// stripOwnerProviderPrefix rewrites owner ids stored before owners were
// resolved to canonical ids ("google:123" becomes "123").
func stripOwnerProviderPrefix(db *gorm.DB) error {
	start := len(legacyOwnerPrefix) + 1
	return db.Model(&portfolios.PortfolioRecord{}).
		Where("owner_id LIKE ?", legacyOwnerPrefix+"%").
		Update("owner_id", gorm.Expr("substr(owner_id, ?)", start)).
		Error
}

// normalizePortfolioState repairs rows with an unknown status or a version below one.
func normalizePortfolioState(db *gorm.DB) error {
	err := db.Model(&portfolios.PortfolioRecord{}).
		Where("status NOT IN ?", []string{string(portfolios.StatusDraft), string(portfolios.StatusPublished)}).
		Update("status", string(portfolios.StatusDraft)).
		Error
	if err != nil {
		return err
	}
	return db.Model(&portfolios.PortfolioRecord{}).
		Where("version < ?", 1).
		Update("version", 1).
		Error
}

package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PortfolioRecord is the relational row backing a portfolio. Sections, theme and
// settings are embedded as JSON text; sections have no table of their own.
type PortfolioRecord struct {
	PortfolioID       string `gorm:"column:portfolio_id;primaryKey;size:190;not null"`
	OwnerID           string `gorm:"column:owner_id;size:190;not null;index:idx_portfolios_owner_updated,priority:1"`
	Name              string `gorm:"column:name;not null"`
	Slug              string `gorm:"column:slug;size:190;not null;uniqueIndex"`
	SectionsJSON      string `gorm:"column:sections_json;type:text;not null"`
	ThemeJSON         string `gorm:"column:theme_json;type:text;not null"`
	SettingsJSON      string `gorm:"column:settings_json;type:text;not null"`
	Status            string `gorm:"column:status;size:32;not null;default:'draft'"`
	Version           int64  `gorm:"column:version;not null;default:1"`
	CreatedAtMillis   int64  `gorm:"column:created_at_ms;not null"`
	UpdatedAtMillis   int64  `gorm:"column:updated_at_ms;not null;index:idx_portfolios_owner_updated,priority:2"`
	PublishedAtMillis *int64 `gorm:"column:published_at_ms"`
	DeploymentURL     string `gorm:"column:deployment_url;not null;default:''"`
	GitHubRepo        string `gorm:"column:github_repo;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (PortfolioRecord) TableName() string {
	return "portfolios"
}

// GormRepository stores portfolios in a relational database through GORM.
type GormRepository struct {
	db    *gorm.DB
	newID func() (string, error)
}

// NewGormRepository constructs a repository over db issuing UUIDv7 identifiers.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, newID: newUUIDv7}
}

func newUUIDv7() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// ValidID accepts any non-empty identifier within storage bounds.
func (r *GormRepository) ValidID(id string) bool {
	return id != "" && len(id) <= maxIdentifierLength
}

func (r *GormRepository) Insert(ctx context.Context, portfolio Portfolio) (Portfolio, error) {
	id, err := r.newID()
	if err != nil {
		return Portfolio{}, err
	}
	portfolio.ID = id
	record, err := recordFromPortfolio(portfolio)
	if err != nil {
		return Portfolio{}, err
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return Portfolio{}, err
	}
	return portfolio, nil
}

func (r *GormRepository) FindOne(ctx context.Context, filter Filter) (Portfolio, bool, error) {
	query := r.db.WithContext(ctx).Model(&PortfolioRecord{})
	if filter.ID != "" {
		query = query.Where("portfolio_id = ?", filter.ID)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Slug != "" {
		query = query.Where("slug = ?", filter.Slug)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var record PortfolioRecord
	err := query.Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Portfolio{}, false, nil
	}
	if err != nil {
		return Portfolio{}, false, err
	}
	portfolio, err := record.toPortfolio()
	if err != nil {
		return Portfolio{}, false, err
	}
	return portfolio, true, nil
}

func (r *GormRepository) FindByOwner(ctx context.Context, ownerID string) ([]Portfolio, error) {
	var records []PortfolioRecord
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at_ms DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	portfolios := make([]Portfolio, 0, len(records))
	for _, record := range records {
		portfolio, err := record.toPortfolio()
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, portfolio)
	}
	return portfolios, nil
}

func (r *GormRepository) Replace(ctx context.Context, portfolio Portfolio, expectedVersion int64) (bool, error) {
	record, err := recordFromPortfolio(portfolio)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&PortfolioRecord{}).
		Where("portfolio_id = ? AND owner_id = ? AND version = ?", record.PortfolioID, record.OwnerID, expectedVersion).
		Updates(map[string]any{
			"name":            record.Name,
			"sections_json":   record.SectionsJSON,
			"theme_json":      record.ThemeJSON,
			"settings_json":   record.SettingsJSON,
			"status":          record.Status,
			"version":         record.Version,
			"updated_at_ms":   record.UpdatedAtMillis,
			"published_at_ms": record.PublishedAtMillis,
			"deployment_url":  record.DeploymentURL,
			"github_repo":     record.GitHubRepo,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) Delete(ctx context.Context, id string, ownerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND owner_id = ?", id, ownerID).
		Delete(&PortfolioRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func recordFromPortfolio(portfolio Portfolio) (PortfolioRecord, error) {
	collection := portfolio.Sections
	if collection == nil {
		collection = []sections.Section{}
	}
	sectionsJSON, err := json.Marshal(collection)
	if err != nil {
		return PortfolioRecord{}, fmt.Errorf("encode sections: %w", err)
	}
	themeJSON, err := json.Marshal(portfolio.Theme)
	if err != nil {
		return PortfolioRecord{}, fmt.Errorf("encode theme: %w", err)
	}
	settingsJSON, err := json.Marshal(portfolio.Settings)
	if err != nil {
		return PortfolioRecord{}, fmt.Errorf("encode settings: %w", err)
	}

	record := PortfolioRecord{
		PortfolioID:     portfolio.ID,
		OwnerID:         portfolio.OwnerID,
		Name:            portfolio.Name,
		Slug:            portfolio.Slug,
		SectionsJSON:    string(sectionsJSON),
		ThemeJSON:       string(themeJSON),
		SettingsJSON:    string(settingsJSON),
		Status:          string(portfolio.Status),
		Version:         portfolio.Version,
		CreatedAtMillis: portfolio.CreatedAt.UnixMilli(),
		UpdatedAtMillis: portfolio.UpdatedAt.UnixMilli(),
		DeploymentURL:   portfolio.DeploymentURL,
		GitHubRepo:      portfolio.GitHubRepo,
	}
	if portfolio.PublishedAt != nil {
		publishedAt := portfolio.PublishedAt.UnixMilli()
		record.PublishedAtMillis = &publishedAt
	}
	return record, nil
}

func (record PortfolioRecord) toPortfolio() (Portfolio, error) {
	collection := []sections.Section{}
	if record.SectionsJSON != "" {
		if err := json.Unmarshal([]byte(record.SectionsJSON), &collection); err != nil {
			return Portfolio{}, fmt.Errorf("decode sections of %s: %w", record.PortfolioID, err)
		}
	}
	var theme Theme
	if record.ThemeJSON != "" {
		if err := json.Unmarshal([]byte(record.ThemeJSON), &theme); err != nil {
			return Portfolio{}, fmt.Errorf("decode theme of %s: %w", record.PortfolioID, err)
		}
	}
	var settings Settings
	if record.SettingsJSON != "" {
		if err := json.Unmarshal([]byte(record.SettingsJSON), &settings); err != nil {
			return Portfolio{}, fmt.Errorf("decode settings of %s: %w", record.PortfolioID, err)
		}
	}

	portfolio := Portfolio{
		ID:            record.PortfolioID,
		OwnerID:       record.OwnerID,
		Name:          record.Name,
		Slug:          record.Slug,
		Sections:      collection,
		Theme:         theme,
		Settings:      settings,
		Status:        Status(record.Status),
		Version:       record.Version,
		CreatedAt:     time.UnixMilli(record.CreatedAtMillis).UTC(),
		UpdatedAt:     time.UnixMilli(record.UpdatedAtMillis).UTC(),
		DeploymentURL: record.DeploymentURL,
		GitHubRepo:    record.GitHubRepo,
	}
	if record.PublishedAtMillis != nil {
		publishedAt := time.UnixMilli(*record.PublishedAtMillis).UTC()
		portfolio.PublishedAt = &publishedAt
	}
	return portfolio, nil
}

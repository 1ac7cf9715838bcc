package portfolios

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
)

// Status enumerates the publication lifecycle of a portfolio.
type Status string

const (
	// StatusDraft is the initial state of every portfolio.
	StatusDraft Status = "draft"
	// StatusPublished marks a portfolio that has been explicitly published.
	StatusPublished Status = "published"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidPortfolioID indicates an identifier the configured store cannot address.
	ErrInvalidPortfolioID = errors.New("portfolios: invalid portfolio id")
	// ErrInvalidOwnerID indicates an empty or oversized owner identifier.
	ErrInvalidOwnerID = errors.New("portfolios: invalid owner id")
	// ErrInvalidName indicates an empty portfolio name.
	ErrInvalidName = errors.New("portfolios: invalid name")
	// ErrInvalidSections indicates a section collection that breaks identity rules.
	ErrInvalidSections = errors.New("portfolios: invalid sections")
	// ErrInvalidPatch indicates an update payload with malformed fields.
	ErrInvalidPatch = errors.New("portfolios: invalid patch")
	// ErrVersionConflict indicates that the stored portfolio moved past the expected version.
	ErrVersionConflict = errors.New("portfolios: version conflict")
)

// OwnerID represents a validated owner identifier.
type OwnerID string

// NewOwnerID validates raw input and returns an OwnerID.
func NewOwnerID(rawInput string) (OwnerID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidOwnerID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidOwnerID, maxIdentifierLength)
	}
	return OwnerID(trimmed), nil
}

// String returns the underlying identifier.
func (id OwnerID) String() string {
	return string(id)
}

// Theme holds the presentation defaults of a portfolio.
type Theme struct {
	PrimaryColor    string `json:"primaryColor" validate:"omitempty,hexcolor"`
	SecondaryColor  string `json:"secondaryColor" validate:"omitempty,hexcolor"`
	FontFamily      string `json:"fontFamily" validate:"max=100"`
	BackgroundColor string `json:"backgroundColor" validate:"omitempty,hexcolor"`
	TextColor       string `json:"textColor" validate:"omitempty,hexcolor"`
}

// SEO carries page metadata.
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Analytics carries tracking identifiers.
type Analytics struct {
	GoogleAnalyticsID string `json:"googleAnalyticsId,omitempty"`
}

// Settings groups metadata that has no behaviour of its own.
type Settings struct {
	SEO       SEO        `json:"seo"`
	Domain    string     `json:"domain,omitempty"`
	Analytics *Analytics `json:"analytics,omitempty"`
}

// Portfolio is the document owned by one user.
type Portfolio struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"userId"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Sections      []sections.Section `json:"sections"`
	Theme         Theme              `json:"theme"`
	Settings      Settings           `json:"settings"`
	Status        Status             `json:"status"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	PublishedAt   *time.Time         `json:"publishedAt,omitempty"`
	DeploymentURL string             `json:"deploymentUrl,omitempty"`
	GitHubRepo    string             `json:"githubRepo,omitempty"`
}

// PublicPortfolio is what visitors of a published portfolio see. It leaves out
// the owner, the lifecycle state and the deployment links.
type PublicPortfolio struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Sections    []sections.Section `json:"sections"`
	Theme       Theme              `json:"theme"`
	Settings    Settings           `json:"settings"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	PublishedAt *time.Time         `json:"publishedAt,omitempty"`
}

// Public returns the visitor view of p.
func (p Portfolio) Public() PublicPortfolio {
	return PublicPortfolio{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Sections:    p.Sections,
		Theme:       p.Theme,
		Settings:    p.Settings,
		UpdatedAt:   p.UpdatedAt,
		PublishedAt: p.PublishedAt,
	}
}

// Patch lists the client-writable fields of a portfolio. Nil fields are left untouched.
type Patch struct {
	Name          *string             `json:"name,omitempty"`
	Sections      *[]sections.Section `json:"sections,omitempty"`
	Theme         *Theme              `json:"theme,omitempty"`
	Settings      *Settings           `json:"settings,omitempty"`
	DeploymentURL *string             `json:"deploymentUrl,omitempty"`
	GitHubRepo    *string             `json:"githubRepo,omitempty"`
	// Version, when set, must equal the stored version for the update to apply.
	Version *int64 `json:"version,omitempty"`
}

// DefaultTheme returns the theme assigned at creation.
func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:    "#2563eb",
		SecondaryColor:  "#1e40af",
		FontFamily:      "Inter",
		BackgroundColor: "#ffffff",
		TextColor:       "#111827",
	}
}

// DefaultSettings returns the settings assigned at creation.
func DefaultSettings(name string) Settings {
	return Settings{
		SEO: SEO{
			Title:       name,
			Description: fmt.Sprintf("%s - Professional Portfolio", name),
			Keywords:    []string{},
		},
	}
}

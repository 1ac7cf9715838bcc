package portfolios

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	errMissingRepository = errors.New("repository is required")
	errSlugExhausted     = errors.New("no free slug")
	noOpLogger           = zap.NewNop()
)

const slugAttempts = 5

type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "portfolios.service.new"
	opGet          = "portfolios.get"
	opCreate       = "portfolios.create"
	opUpdate       = "portfolios.update"
	opDelete       = "portfolios.delete"
	opPublish      = "portfolios.publish"
	opListByOwner  = "portfolios.list_by_owner"
	opDuplicate    = "portfolios.duplicate"
	opGetPublished = "portfolios.get_published"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// PublishedCache keeps read-only copies of published portfolios keyed by slug.
type PublishedCache interface {
	Get(ctx context.Context, slug string) (Portfolio, bool, error)
	Set(ctx context.Context, portfolio Portfolio) error
	Invalidate(ctx context.Context, slug string) error
}

type ServiceConfig struct {
	Repository Repository
	Cache      PublishedCache
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service is the portfolio access layer. Every owner-scoped operation treats a
// portfolio of another owner exactly like a missing one.
type Service struct {
	repository Repository
	cache      PublishedCache
	clock      func() time.Time
	logger     *zap.Logger
	validate   *validator.Validate
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, newServiceError(opServiceNew, "missing_repository", errMissingRepository)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		repository: cfg.Repository,
		cache:      cfg.Cache,
		clock:      clock,
		logger:     logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Get returns the portfolio when it exists and belongs to ownerID. Malformed ids report absence.
func (s *Service) Get(ctx context.Context, id string, ownerID OwnerID) (Portfolio, bool, error) {
	if !s.repository.ValidID(id) {
		return Portfolio{}, false, nil
	}
	portfolio, found, err := s.repository.FindOne(ctx, Filter{ID: id, OwnerID: ownerID.String()})
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return Portfolio{}, false, newServiceError(opGet, "query_failed", err)
	}
	return portfolio, found, nil
}

// Create stores an empty draft portfolio named name.
func (s *Service) Create(ctx context.Context, ownerID OwnerID, name string) (Portfolio, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Portfolio{}, newServiceError(opCreate, "invalid_name", ErrInvalidName)
	}

	now := s.now()
	slug, err := s.uniqueSlug(ctx, trimmedName, now)
	if err != nil {
		s.logError(opCreate, "slug_failed", err, zap.String("owner_id", ownerID.String()))
		return Portfolio{}, newServiceError(opCreate, "slug_failed", err)
	}

	portfolio, err := s.repository.Insert(ctx, Portfolio{
		OwnerID:   ownerID.String(),
		Name:      trimmedName,
		Slug:      slug,
		Sections:  []sections.Section{},
		Theme:     DefaultTheme(),
		Settings:  DefaultSettings(trimmedName),
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logError(opCreate, "insert_failed", err, zap.String("owner_id", ownerID.String()))
		return Portfolio{}, newServiceError(opCreate, "insert_failed", err)
	}
	return portfolio, nil
}

// Update applies patch to the owner's portfolio and stamps a new updated-at.
// A patch carrying a stale version fails with ErrVersionConflict.
func (s *Service) Update(ctx context.Context, id string, ownerID OwnerID, patch Patch) (Portfolio, bool, error) {
	if !s.repository.ValidID(id) {
		return Portfolio{}, false, newServiceError(opUpdate, "invalid_id", fmt.Errorf("%w: %q", ErrInvalidPortfolioID, id))
	}
	if err := s.validatePatch(patch); err != nil {
		return Portfolio{}, false, err
	}

	current, found, err := s.repository.FindOne(ctx, Filter{ID: id, OwnerID: ownerID.String()})
	if err != nil {
		s.logError(opUpdate, "query_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return Portfolio{}, false, newServiceError(opUpdate, "query_failed", err)
	}
	if !found {
		return Portfolio{}, false, nil
	}
	if patch.Version != nil && *patch.Version != current.Version {
		return Portfolio{}, false, newServiceError(opUpdate, "version_conflict",
			fmt.Errorf("%w: expected %d, stored %d", ErrVersionConflict, *patch.Version, current.Version))
	}

	next := applyPatch(current, patch)
	next.Version = current.Version + 1
	next.UpdatedAt = s.now()
	return s.replace(ctx, opUpdate, current, next)
}

// Delete removes the owner's portfolio. Malformed ids report absence.
func (s *Service) Delete(ctx context.Context, id string, ownerID OwnerID) (bool, error) {
	if !s.repository.ValidID(id) {
		return false, nil
	}
	current, found, err := s.repository.FindOne(ctx, Filter{ID: id, OwnerID: ownerID.String()})
	if err != nil {
		s.logError(opDelete, "query_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return false, newServiceError(opDelete, "query_failed", err)
	}
	if !found {
		return false, nil
	}
	deleted, err := s.repository.Delete(ctx, id, ownerID.String())
	if err != nil {
		s.logError(opDelete, "delete_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return false, newServiceError(opDelete, "delete_failed", err)
	}
	if deleted {
		s.invalidate(ctx, current)
	}
	return deleted, nil
}

// Publish moves the owner's portfolio to the published state. Malformed ids report absence.
func (s *Service) Publish(ctx context.Context, id string, ownerID OwnerID) (Portfolio, bool, error) {
	if !s.repository.ValidID(id) {
		return Portfolio{}, false, nil
	}
	current, found, err := s.repository.FindOne(ctx, Filter{ID: id, OwnerID: ownerID.String()})
	if err != nil {
		s.logError(opPublish, "query_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return Portfolio{}, false, newServiceError(opPublish, "query_failed", err)
	}
	if !found {
		return Portfolio{}, false, nil
	}

	now := s.now()
	next := current
	next.Status = StatusPublished
	next.PublishedAt = &now
	next.UpdatedAt = now
	next.Version = current.Version + 1
	return s.replace(ctx, opPublish, current, next)
}

// ListByOwner returns the owner's portfolios, most recently updated first.
func (s *Service) ListByOwner(ctx context.Context, ownerID OwnerID) ([]Portfolio, error) {
	portfolios, err := s.repository.FindByOwner(ctx, ownerID.String())
	if err != nil {
		s.logError(opListByOwner, "query_failed", err, zap.String("owner_id", ownerID.String()))
		return nil, newServiceError(opListByOwner, "query_failed", err)
	}
	if portfolios == nil {
		portfolios = []Portfolio{}
	}
	return portfolios, nil
}

// Duplicate stores a draft copy of the owner's portfolio under newName.
// An empty newName derives one from the source name. Malformed ids report absence.
func (s *Service) Duplicate(ctx context.Context, id string, ownerID OwnerID, newName string) (Portfolio, bool, error) {
	if !s.repository.ValidID(id) {
		return Portfolio{}, false, nil
	}
	source, found, err := s.repository.FindOne(ctx, Filter{ID: id, OwnerID: ownerID.String()})
	if err != nil {
		s.logError(opDuplicate, "query_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return Portfolio{}, false, newServiceError(opDuplicate, "query_failed", err)
	}
	if !found {
		return Portfolio{}, false, nil
	}

	name := strings.TrimSpace(newName)
	if name == "" {
		name = source.Name + " (Copy)"
	}
	now := s.now()
	slug, err := s.uniqueSlug(ctx, name, now)
	if err != nil {
		s.logError(opDuplicate, "slug_failed", err, zap.String("portfolio_id", id))
		return Portfolio{}, false, newServiceError(opDuplicate, "slug_failed", err)
	}

	copied, err := s.repository.Insert(ctx, Portfolio{
		OwnerID:    source.OwnerID,
		Name:       name,
		Slug:       slug,
		Sections:   sections.CloneAll(source.Sections),
		Theme:      source.Theme,
		Settings:   cloneSettings(source.Settings),
		Status:     StatusDraft,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
		GitHubRepo: source.GitHubRepo,
	})
	if err != nil {
		s.logError(opDuplicate, "insert_failed", err, zap.String("portfolio_id", id), zap.String("owner_id", ownerID.String()))
		return Portfolio{}, false, newServiceError(opDuplicate, "insert_failed", err)
	}
	return copied, true, nil
}

// GetPublishedBySlug serves the public view of a published portfolio, through the cache when configured.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (Portfolio, bool, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return Portfolio{}, false, nil
	}
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, trimmed)
		if err != nil {
			s.logger.Warn("published cache read failed", zap.String("slug", trimmed), zap.Error(err))
		} else if hit {
			return cached, true, nil
		}
	}

	portfolio, found, err := s.repository.FindOne(ctx, Filter{Slug: trimmed, Status: StatusPublished})
	if err != nil {
		s.logError(opGetPublished, "query_failed", err, zap.String("slug", trimmed))
		return Portfolio{}, false, newServiceError(opGetPublished, "query_failed", err)
	}
	if !found {
		return Portfolio{}, false, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, portfolio); err != nil {
			s.logger.Warn("published cache write failed", zap.String("slug", trimmed), zap.Error(err))
		}
	}
	return portfolio, true, nil
}

func (s *Service) replace(ctx context.Context, operation string, current, next Portfolio) (Portfolio, bool, error) {
	replaced, err := s.repository.Replace(ctx, next, current.Version)
	if err != nil {
		s.logError(operation, "replace_failed", err, zap.String("portfolio_id", current.ID), zap.String("owner_id", current.OwnerID))
		return Portfolio{}, false, newServiceError(operation, "replace_failed", err)
	}
	if !replaced {
		_, stillExists, err := s.repository.FindOne(ctx, Filter{ID: current.ID, OwnerID: current.OwnerID})
		if err != nil {
			s.logError(operation, "query_failed", err, zap.String("portfolio_id", current.ID))
			return Portfolio{}, false, newServiceError(operation, "query_failed", err)
		}
		if !stillExists {
			return Portfolio{}, false, nil
		}
		return Portfolio{}, false, newServiceError(operation, "version_conflict",
			fmt.Errorf("%w: stored version moved past %d", ErrVersionConflict, current.Version))
	}
	s.invalidate(ctx, current)
	return next, true, nil
}

func (s *Service) validatePatch(patch Patch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return newServiceError(opUpdate, "invalid_name", ErrInvalidName)
	}
	if patch.Sections != nil {
		if err := validateSections(*patch.Sections); err != nil {
			return newServiceError(opUpdate, "invalid_sections", err)
		}
	}
	if patch.Theme != nil {
		if err := s.validate.Struct(patch.Theme); err != nil {
			return newServiceError(opUpdate, "invalid_theme", fmt.Errorf("%w: %v", ErrInvalidPatch, err))
		}
	}
	return nil
}

func validateSections(collection []sections.Section) error {
	if err := sections.Validate(collection); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSections, err)
	}
	for _, section := range collection {
		if !section.Type.Valid() {
			return fmt.Errorf("%w: section %s has unknown type %q", ErrInvalidSections, section.ID, section.Type)
		}
	}
	return nil
}

func applyPatch(current Portfolio, patch Patch) Portfolio {
	next := current
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Sections != nil {
		next.Sections = sections.CloneAll(*patch.Sections)
		if next.Sections == nil {
			next.Sections = []sections.Section{}
		}
	}
	if patch.Theme != nil {
		next.Theme = *patch.Theme
	}
	if patch.Settings != nil {
		next.Settings = cloneSettings(*patch.Settings)
	}
	if patch.DeploymentURL != nil {
		next.DeploymentURL = *patch.DeploymentURL
	}
	if patch.GitHubRepo != nil {
		next.GitHubRepo = *patch.GitHubRepo
	}
	return next
}

func cloneSettings(settings Settings) Settings {
	copied := settings
	copied.SEO.Keywords = append([]string{}, settings.SEO.Keywords...)
	if settings.Analytics != nil {
		analytics := *settings.Analytics
		copied.Analytics = &analytics
	}
	return copied
}

func (s *Service) uniqueSlug(ctx context.Context, name string, now time.Time) (string, error) {
	for attempt := 0; attempt < slugAttempts; attempt++ {
		candidate := generateSlug(name, now.Add(time.Duration(attempt)*time.Millisecond))
		_, taken, err := s.repository.FindOne(ctx, Filter{Slug: candidate})
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errSlugExhausted
}

func (s *Service) invalidate(ctx context.Context, portfolio Portfolio) {
	if s.cache == nil || portfolio.Status != StatusPublished {
		return
	}
	if err := s.cache.Invalidate(ctx, portfolio.Slug); err != nil {
		s.logger.Warn("published cache invalidation failed", zap.String("slug", portfolio.Slug), zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("portfolios service error", attrs...)
}

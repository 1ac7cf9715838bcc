// Package users resolves session claims to the canonical owner id portfolios are keyed by.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/auth"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

var noOpLogger = zap.NewNop()

// ServiceConfig describes the dependencies required for owner resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service maps provider identities onto canonical owner ids and caches the mapping.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
	cache  sync.Map
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
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
		db:     cfg.Database,
		now:    clock,
		logger: logger,
	}, nil
}

// ResolveOwner returns the owner id for the session, recording the identity
// the first time a provider+subject pair is seen.
func (s *Service) ResolveOwner(ctx context.Context, claims auth.SessionClaims) (portfolios.OwnerID, error) {
	provider, subject := providerSubject(claims.UserID, claims.Subject, claims.UserEmail)
	if subject == "" {
		return "", ErrInvalidIdentity
	}

	cacheKey := provider + ":" + subject
	if cached, ok := s.cache.Load(cacheKey); ok {
		if ownerID, ok := cached.(portfolios.OwnerID); ok {
			return ownerID, nil
		}
	}

	db := s.db.WithContext(ctx)
	var identity Identity
	err := db.Where("provider = ? AND subject = ?", provider, subject).First(&identity).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity = Identity{
			Provider:    provider,
			Subject:     subject,
			UserID:      subject,
			Email:       strings.TrimSpace(claims.UserEmail),
			DisplayName: strings.TrimSpace(claims.UserDisplayName),
			AvatarURL:   strings.TrimSpace(claims.UserAvatarURL),
			LastSeenAt:  s.now().UTC(),
		}
		if err := db.Create(&identity).Error; err != nil {
			return "", fmt.Errorf("users: record identity: %w", err)
		}
		s.logger.Info("owner identity recorded", zap.String("provider", provider), zap.String("owner_id", identity.UserID))
	case err != nil:
		return "", fmt.Errorf("users: lookup identity: %w", err)
	default:
		s.refreshProfile(ctx, identity, claims)
	}

	ownerID, err := portfolios.NewOwnerID(identity.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	s.cache.Store(cacheKey, ownerID)
	return ownerID, nil
}

// refreshProfile copies changed profile fields from the claims. Failures are logged
// and do not block resolution.
func (s *Service) refreshProfile(ctx context.Context, identity Identity, claims auth.SessionClaims) {
	updates := map[string]interface{}{"last_seen_at": s.now().UTC()}
	if email := strings.TrimSpace(claims.UserEmail); email != "" && email != identity.Email {
		updates["user_email"] = email
	}
	if display := strings.TrimSpace(claims.UserDisplayName); display != "" && display != identity.DisplayName {
		updates["user_display_name"] = display
	}
	if avatar := strings.TrimSpace(claims.UserAvatarURL); avatar != "" && avatar != identity.AvatarURL {
		updates["user_avatar_url"] = avatar
	}
	err := s.db.WithContext(ctx).
		Model(&Identity{}).
		Where("provider = ? AND subject = ?", identity.Provider, identity.Subject).
		Updates(updates).
		Error
	if err != nil {
		s.logger.Warn("owner profile refresh failed", zap.String("owner_id", identity.UserID), zap.Error(err))
	}
}

package users

import (
	"strings"
	"time"
)

// Identity maps a provider login onto the canonical owner id that portfolios are stored under.
type Identity struct {
	Provider    string    `gorm:"column:provider;primaryKey;size:32;not null"`
	Subject     string    `gorm:"column:subject;primaryKey;size:190;not null"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index"`
	Email       string    `gorm:"column:user_email;size:320"`
	DisplayName string    `gorm:"column:user_display_name;size:320"`
	AvatarURL   string    `gorm:"column:user_avatar_url;size:512"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Identity) TableName() string {
	return "user_identities"
}

const defaultProvider = "default"

// providerSubject splits the session user id into provider and subject.
// "google:123" yields ("google", "123"); an unprefixed id keeps the default provider.
func providerSubject(userID, subject, email string) (string, string) {
	provider := defaultProvider
	subject = strings.TrimSpace(subject)

	raw := strings.TrimSpace(userID)
	if raw != "" {
		if prefix, rest, found := strings.Cut(raw, ":"); found && strings.TrimSpace(prefix) != "" && strings.TrimSpace(rest) != "" {
			provider = strings.TrimSpace(prefix)
			subject = strings.TrimSpace(rest)
		} else if subject == "" {
			subject = raw
		}
	}
	if subject == "" {
		subject = strings.TrimSpace(email)
	}
	return provider, subject
}

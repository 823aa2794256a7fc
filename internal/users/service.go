package users

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the session did not carry a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

// ServiceConfig describes the dependencies required for identity tracking.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service tracks the identities seen across collaborative sessions.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		cache: sync.Map{},
	}, nil
}

// RecordSession notes that the user opened a collaborative session and
// returns the display name to attach to it. A non-empty claimed name wins and
// refreshes the stored one; when the credential omits a name the stored name
// is used, falling back to the user id so the session always has a label.
func (s *Service) RecordSession(userID, claimedDisplayName string) (string, error) {
	subject := normalize(userID)
	if subject == "" {
		return "", ErrInvalidIdentity
	}
	claimed := normalize(claimedDisplayName)

	var identity Identity
	err := s.db.
		Where("user_id = ?", subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			UserID:      subject,
			DisplayName: claimed,
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else {
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if claimed != "" && claimed != identity.DisplayName {
			updates["user_display_name"] = claimed
		}
		_ = s.db.Model(&Identity{}).
			Where("user_id = ?", subject).
			Updates(updates).
			Error
	}

	resolved := claimed
	if resolved == "" {
		resolved = s.DisplayName(subject)
	}
	s.cache.Store(subject, resolved)
	return resolved, nil
}

// DisplayName returns the last display name recorded for a user, falling back
// to the user id when the user has never opened a session.
func (s *Service) DisplayName(userID string) string {
	subject := normalize(userID)
	if subject == "" {
		return ""
	}
	if cached, ok := s.cache.Load(subject); ok {
		if name, ok := cached.(string); ok && name != "" {
			return name
		}
	}
	var identity Identity
	if err := s.db.Where("user_id = ?", subject).First(&identity).Error; err != nil {
		return subject
	}
	if identity.DisplayName == "" {
		return subject
	}
	s.cache.Store(subject, identity.DisplayName)
	return identity.DisplayName
}

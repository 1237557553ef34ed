package repository

import (
	"errors"

	"gorm.io/gorm"

	"pacsbot/internal/models"
)

// SessionRepository persists portal cookie sets.
// Append-only: the newest row is the active session.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Append stores a freshly authenticated cookie string.
func (r *SessionRepository) Append(cookies string) (*models.SessionRecord, error) {
	rec := &models.SessionRecord{Cookies: cookies}
	if err := r.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the most recent cookie string, or "" when no session
// has been persisted yet.
func (r *SessionRepository) Latest() (string, error) {
	var rec models.SessionRecord
	err := r.db.Order("created_at DESC, id DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Cookies, nil
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.SessionRecord{}).Count(&total).Error
	return total, err
}

package repository

import (
	"errors"

	"gorm.io/gorm"

	"pacsbot/internal/models"
)

// ToggleRepository persists automation on/off actions.
// Append-only, latest row wins.
type ToggleRepository struct {
	db *gorm.DB
}

func NewToggleRepository(db *gorm.DB) *ToggleRepository {
	return &ToggleRepository{db: db}
}

// Append stores a new toggle action and returns it.
func (r *ToggleRepository) Append(isEnabled bool) (*models.AutomationToggle, error) {
	toggle := &models.AutomationToggle{IsEnabled: isEnabled}
	if err := r.db.Create(toggle).Error; err != nil {
		return nil, err
	}
	return toggle, nil
}

// Latest returns the most recent toggle record, or nil when none exists.
func (r *ToggleRepository) Latest() (*models.AutomationToggle, error) {
	var toggle models.AutomationToggle
	err := r.db.Order("created_at DESC, id DESC").First(&toggle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &toggle, nil
}

// IsEnabled reports the latest toggle value, defaulting to false when
// no record exists or the store is unreachable.
func (r *ToggleRepository) IsEnabled() bool {
	toggle, err := r.Latest()
	if err != nil || toggle == nil {
		return false
	}
	return toggle.IsEnabled
}

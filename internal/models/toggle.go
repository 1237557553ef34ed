package models

import "time"

// AutomationToggle stores one automation on/off action.
// Append-only, latest row wins; toggles are never updated in place so
// concurrent writes cannot race on a single row.
type AutomationToggle struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	IsEnabled bool      `gorm:"column:is_enabled" json:"isEnabled"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_automation_toggles_created_at" json:"createdAt"`
}

func (AutomationToggle) TableName() string {
	return "automation_toggles"
}

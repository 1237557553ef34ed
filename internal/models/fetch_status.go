package models

import "time"

// Fetch run states.
const (
	StatusIdle     = "idle"
	StatusFetching = "fetching"
	StatusSuccess  = "success"
	StatusError    = "error"
)

// FetchStatus records the outcome of one worker run.
// One row per outcome; history is trimmed to the newest 500 rows.
type FetchStatus struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LastFetch    time.Time `gorm:"column:last_fetch" json:"lastFetch"`
	Status       string    `gorm:"column:status;size:20" json:"status"`
	Message      string    `gorm:"column:message;type:text" json:"message"`
	PatientCount int       `gorm:"column:patient_count;default:0" json:"patientCount"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index:idx_fetch_statuses_created_at" json:"createdAt"`
}

func (FetchStatus) TableName() string {
	return "fetch_statuses"
}

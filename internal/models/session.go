package models

import "time"

// SessionRecord stores one authenticated portal cookie set.
// Append-only: the newest row is the active session. The cookies column
// is the full Cookie header value and is opaque outside the portal client.
type SessionRecord struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Cookies   string    `gorm:"column:cookies;type:text" json:"cookies"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_session_records_created_at" json:"createdAt"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}

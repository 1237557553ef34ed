package models

import "time"

// PatientFetch is the audit log of successful selections.
// A row is appended only when a run selected at least one patient.
// Never trimmed.
type PatientFetch struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PatientCount int       `gorm:"column:patient_count" json:"patientCount"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (PatientFetch) TableName() string {
	return "patient_fetches"
}

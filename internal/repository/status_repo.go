package repository

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pacsbot/internal/models"
)

// StatusRetention is the number of fetch status rows kept in history.
const StatusRetention = 500

// StatusRepository persists run outcomes and the fetch-count audit log.
type StatusRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStatusRepository(db *gorm.DB, logger *zap.Logger) *StatusRepository {
	return &StatusRepository{db: db, logger: logger}
}

// Append inserts one status row and kicks off a best-effort history
// trim in the background. A failed trim never affects the insert.
func (r *StatusRepository) Append(status, message string, patientCount int) error {
	rec := &models.FetchStatus{
		LastFetch:    time.Now(),
		Status:       status,
		Message:      message,
		PatientCount: patientCount,
	}
	if err := r.db.Create(rec).Error; err != nil {
		return err
	}

	go func() {
		if err := r.TrimToLatest(StatusRetention); err != nil {
			r.logger.Error("Failed to cleanup old fetch status records", zap.Error(err))
		}
	}()

	return nil
}

// TrimToLatest deletes every status row older than the n-th newest.
func (r *StatusRepository) TrimToLatest(n int) error {
	var total int64
	if err := r.db.Model(&models.FetchStatus{}).Count(&total).Error; err != nil {
		return err
	}
	if total <= int64(n) {
		return nil
	}

	// Find the n-th newest row; everything with a smaller id goes.
	var cutoff models.FetchStatus
	err := r.db.Select("id").
		Order("created_at DESC, id DESC").
		Offset(n - 1).
		First(&cutoff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return r.db.Where("id < ?", cutoff.ID).Delete(&models.FetchStatus{}).Error
}

// AppendFetchCount records a successful selection in the audit log.
// Calls with a non-positive count are ignored.
func (r *StatusRepository) AppendFetchCount(patientCount int) error {
	if patientCount <= 0 {
		return nil
	}
	return r.db.Create(&models.PatientFetch{PatientCount: patientCount}).Error
}

// Latest returns the most recent status row, or nil when none exists.
func (r *StatusRepository) Latest() (*models.FetchStatus, error) {
	var rec models.FetchStatus
	err := r.db.Order("created_at DESC, id DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the number of stored status rows.
func (r *StatusRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.FetchStatus{}).Count(&total).Error
	return total, err
}

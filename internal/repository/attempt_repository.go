package repository

import (
	"basebuilder_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// AttemptRepository 作答流水（只追加）。写入在 SchedulerService 的事务内进行。
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// ListSince 某学习者自某时刻起的全部作答，会话总结用
func (r *AttemptRepository) ListSince(learnerID uint, since time.Time) ([]model.AttemptRecord, error) {
	var records []model.AttemptRecord
	err := r.DB.
		Where("learner_id = ? AND created_at >= ?", learnerID, since).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttemptRepository) CountByLearner(learnerID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.AttemptRecord{}).
		Where("learner_id = ?", learnerID).
		Count(&count).Error
	return count, err
}

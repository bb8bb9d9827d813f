package model

import "time"

// AttemptRecord 作答流水，只追加不修改
type AttemptRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID    uint      `gorm:"index:idx_attempt_learner_time;not null" json:"learnerId"`
	ItemID       string    `gorm:"index;type:varchar(36);not null" json:"itemId"`
	Answer       string    `gorm:"type:text" json:"answer"`
	IsCorrect    bool      `json:"isCorrect"`
	AnswerTimeMs int       `gorm:"default:0" json:"answerTimeMs"`
	CreatedAt    time.Time `gorm:"index:idx_attempt_learner_time" json:"createdAt"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}

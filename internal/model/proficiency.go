package model

import (
	"time"
)

const (
	MinLevel = 0
	MaxLevel = 5
)

// ItemProficiency 学习者×条目的掌握度，首次作答时惰性创建
type ItemProficiency struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID  uint      `gorm:"uniqueIndex:idx_learner_item;not null" json:"learnerId"`
	ItemID     string    `gorm:"uniqueIndex:idx_learner_item;type:varchar(36);not null" json:"itemId"`
	Level      int       `gorm:"default:0" json:"level"` // 0-5
	ReviewDate time.Time `gorm:"index" json:"reviewDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (ItemProficiency) TableName() string {
	return "item_proficiencies"
}

// CategoryProficiency 派生数据：分类内条目掌握度的汇总，写后增量重算
type CategoryProficiency struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID  uint      `gorm:"uniqueIndex:idx_learner_category;not null" json:"learnerId"`
	CategoryID string    `gorm:"uniqueIndex:idx_learner_category;type:varchar(36);not null" json:"categoryId"`
	Level      int       `gorm:"default:0" json:"level"` // 0-5
	ReviewDate time.Time `json:"reviewDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (CategoryProficiency) TableName() string {
	return "category_proficiencies"
}

// CollectionProficiency 派生数据：集合完成百分比
type CollectionProficiency struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID    uint      `gorm:"uniqueIndex:idx_learner_collection;not null" json:"learnerId"`
	CollectionID string    `gorm:"uniqueIndex:idx_learner_collection;type:varchar(36);not null" json:"collectionId"`
	LevelPct     int       `gorm:"default:0" json:"levelPct"` // 0-100
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (CollectionProficiency) TableName() string {
	return "collection_proficiencies"
}

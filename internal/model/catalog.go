package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// AnswerType 题目作答类型，封闭枚举
type AnswerType string

const (
	AnswerMultipleChoice AnswerType = "multiple_choice"
	AnswerTrueFalse      AnswerType = "true_false"
	AnswerFreeText       AnswerType = "free_text"
)

// Category 知识分类
type Category struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// Collection 主题条目集（有序）
type Collection struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Items       []CollectionItem `gorm:"foreignKey:CollectionID" json:"items,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (Collection) TableName() string {
	return "collections"
}

type CollectionItem struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CollectionID string `gorm:"index;type:varchar(36);not null" json:"collectionId"`
	ItemID       string `gorm:"index;type:varchar(36);not null" json:"itemId"`
	Order        int    `gorm:"default:0" json:"order"`
}

func (CollectionItem) TableName() string {
	return "collection_items"
}

// KnowledgeItem 原子知识条目。对引擎只读，由外部内容目录维护。
// 遗留内容的正确答案可能散落在 Title、Answer 或 Choices 三处，
// 字段不一致时以多级回退方式判题（见 PresenterService）。
type KnowledgeItem struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Prompt          string         `gorm:"type:text;not null" json:"prompt"`
	AnswerType      AnswerType     `gorm:"size:50;not null" json:"answerType"`
	Answer          string         `gorm:"type:text" json:"answer"`
	AcceptedAnswers string         `gorm:"type:text" json:"acceptedAnswers"` // 逗号分隔的答案变体（free_text）
	Explanation     string         `gorm:"type:text" json:"explanation"`
	CategoryID      string         `gorm:"index;type:varchar(36);not null" json:"categoryId"`
	Difficulty      int            `gorm:"default:1" json:"difficulty"` // 1-5
	Active          bool           `gorm:"default:true" json:"active"`
	Choices         []ItemChoice   `gorm:"foreignKey:ItemID" json:"choices,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (KnowledgeItem) TableName() string {
	return "knowledge_items"
}

// CorrectChoice 返回被标记为正确的结构化选项，没有则返回 nil
func (i *KnowledgeItem) CorrectChoice() *ItemChoice {
	for idx := range i.Choices {
		if i.Choices[idx].IsCorrect {
			return &i.Choices[idx]
		}
	}
	return nil
}

// AcceptedAnswerList 拆分逗号分隔的答案变体
func (i *KnowledgeItem) AcceptedAnswerList() []string {
	if strings.TrimSpace(i.AcceptedAnswers) == "" {
		return nil
	}
	parts := strings.Split(i.AcceptedAnswers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type ItemChoice struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ItemID    string `gorm:"index;type:varchar(36);not null" json:"itemId"`
	Text      string `gorm:"type:text;not null" json:"text"`
	IsCorrect bool   `gorm:"default:false" json:"isCorrect"`
}

func (ItemChoice) TableName() string {
	return "item_choices"
}

package service

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/util"
	"basebuilder_backend/pkg/monitoring"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"
)

// reviewIntervalDays 间隔复习表：级别 -> 距下次复习的天数
var reviewIntervalDays = map[int]int{
	0: 0,
	1: 1,
	2: 3,
	3: 7,
	4: 14,
	5: 30,
}

// NextReviewDate 级别的纯函数：当天零点加上该级别的复习间隔
func NextReviewDate(level int, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, reviewIntervalDays[clampLevel(level)])
}

func clampLevel(level int) int {
	if level < model.MinLevel {
		return model.MinLevel
	}
	if level > model.MaxLevel {
		return model.MaxLevel
	}
	return level
}

// SchedulerService 间隔复习策略：把一次作答结果转换为新的掌握级别
// 与下次复习日期，并在同一事务内触发分类/集合聚合重算。
type SchedulerService struct {
	db         *gorm.DB
	aggregator *AggregatorService

	// 同一 (learner, item) 的读改写需串行，避免并发作答互相覆盖；
	// 不同学习者、不同条目互不影响
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSchedulerService(db *gorm.DB, aggregator *AggregatorService) *SchedulerService {
	return &SchedulerService{
		db:         db,
		aggregator: aggregator,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *SchedulerService) keyLock(learnerID uint, itemID string) *sync.Mutex {
	key := fmt.Sprintf("%d:%s", learnerID, itemID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// RecordAttempt 记录一次作答。单个事务内完成：
// 惰性创建掌握度行、级别 ±1 并截断到 [0,5]、按间隔表更新复习日期、
// 追加作答流水、重算条目所属分类与集合的聚合值。
// 任何一步失败整体回滚，不产生部分更新。
func (s *SchedulerService) RecordAttempt(learnerID uint, itemID, submittedAnswer string, isCorrect bool, answerTimeMs int) (*model.ItemProficiency, error) {
	lock := s.keyLock(learnerID, itemID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var updated model.ItemProficiency

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var item model.KnowledgeItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrItemNotFound
			}
			return err
		}

		var prof model.ItemProficiency
		err := tx.Where("learner_id = ? AND item_id = ?", learnerID, itemID).First(&prof).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prof = model.ItemProficiency{LearnerID: learnerID, ItemID: itemID, Level: 0}
		} else if err != nil {
			return err
		}

		delta := -1
		if isCorrect {
			delta = 1
		}
		prof.Level = clampLevel(prof.Level + delta)
		prof.ReviewDate = NextReviewDate(prof.Level, now)

		if err := tx.Save(&prof).Error; err != nil {
			// 惰性创建撞上唯一索引说明同一行正被并发写入
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return util.ErrConflict
			}
			return err
		}

		record := model.AttemptRecord{
			LearnerID:    learnerID,
			ItemID:       itemID,
			Answer:       submittedAnswer,
			IsCorrect:    isCorrect,
			AnswerTimeMs: answerTimeMs,
			CreatedAt:    now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if err := s.aggregator.RecomputeCategoryTx(tx, learnerID, item.CategoryID); err != nil {
			return err
		}

		var collectionIDs []string
		err = tx.Model(&model.CollectionItem{}).
			Where("item_id = ?", itemID).
			Pluck("collection_id", &collectionIDs).Error
		if err != nil {
			return err
		}
		for _, collectionID := range collectionIDs {
			if err := s.aggregator.RecomputeCollectionTx(tx, learnerID, collectionID); err != nil {
				return err
			}
		}

		updated = prof
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptCounter.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()
	return &updated, nil
}

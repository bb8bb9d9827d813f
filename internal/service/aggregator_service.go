package service

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/repository"
	"time"

	"gorm.io/gorm"
)

// AggregatorService 把条目级掌握度向上汇总为分类级与集合级指标。
// 重算在写入后增量触发（不在读取时惰性计算），读取始终是 O(1) 查表。
type AggregatorService struct {
	db       *gorm.DB
	itemRepo *repository.ItemRepository
	profRepo *repository.ProficiencyRepository
}

func NewAggregatorService(db *gorm.DB, itemRepo *repository.ItemRepository, profRepo *repository.ProficiencyRepository) *AggregatorService {
	return &AggregatorService{db: db, itemRepo: itemRepo, profRepo: profRepo}
}

// CategoryLevel 分类级掌握度：floor(条目级别之和 / 条目数)，缺行按 0 计。
// 纯函数，增量重算与全量重算共用同一实现，保证两者不漂移。
func CategoryLevel(itemCount int, levels []int) int {
	if itemCount == 0 {
		return 0
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	level := sum / itemCount
	if level < model.MinLevel {
		return model.MinLevel
	}
	if level > model.MaxLevel {
		return model.MaxLevel
	}
	return level
}

// CollectionPct 集合完成度：floor(已得点数 / (条目数*5) * 100)。
// 缺行条目贡献 0 点，但仍计入条目数。
func CollectionPct(itemCount int, levels []int) int {
	if itemCount == 0 {
		return 0
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return sum * 100 / (itemCount * model.MaxLevel)
}

// RecomputeCategory 校验分类存在后在独立事务中重算（HTTP 修复入口）
func (s *AggregatorService) RecomputeCategory(learnerID uint, categoryID string) (*model.CategoryProficiency, error) {
	if _, err := s.itemRepo.GetCategory(categoryID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.RecomputeCategoryTx(tx, learnerID, categoryID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCategoryProficiency(learnerID, categoryID)
}

// RecomputeCategoryTx 在调用方事务内重算分类级掌握度。
// SchedulerService 在作答落库的同一事务里调用，保证全有或全无。
func (s *AggregatorService) RecomputeCategoryTx(tx *gorm.DB, learnerID uint, categoryID string) error {
	var itemIDs []string
	err := tx.Model(&model.KnowledgeItem{}).
		Where("category_id = ?", categoryID).
		Pluck("id", &itemIDs).Error
	if err != nil {
		return err
	}

	rows, err := s.itemRowsTx(tx, learnerID, itemIDs)
	if err != nil {
		return err
	}

	levels := make([]int, 0, len(rows))
	var minReview time.Time
	for _, row := range rows {
		levels = append(levels, row.Level)
		if minReview.IsZero() || row.ReviewDate.Before(minReview) {
			minReview = row.ReviewDate
		}
	}

	var prof model.CategoryProficiency
	err = tx.Where("learner_id = ? AND category_id = ?", learnerID, categoryID).
		FirstOrInit(&prof, model.CategoryProficiency{LearnerID: learnerID, CategoryID: categoryID}).Error
	if err != nil {
		return err
	}

	prof.Level = CategoryLevel(len(itemIDs), levels)
	// 没有任何条目行时复习日期保持不变
	if !minReview.IsZero() {
		prof.ReviewDate = minReview
	}

	return tx.Save(&prof).Error
}

// RecomputeCollection 校验集合存在后在独立事务中重算（HTTP 修复入口）
func (s *AggregatorService) RecomputeCollection(learnerID uint, collectionID string) (*model.CollectionProficiency, error) {
	if _, err := s.itemRepo.GetCollection(collectionID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.RecomputeCollectionTx(tx, learnerID, collectionID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollectionProficiency(learnerID, collectionID)
}

func (s *AggregatorService) RecomputeCollectionTx(tx *gorm.DB, learnerID uint, collectionID string) error {
	var itemIDs []string
	err := tx.Model(&model.CollectionItem{}).
		Where("collection_id = ?", collectionID).
		Pluck("item_id", &itemIDs).Error
	if err != nil {
		return err
	}

	rows, err := s.itemRowsTx(tx, learnerID, itemIDs)
	if err != nil {
		return err
	}

	levels := make([]int, 0, len(rows))
	for _, row := range rows {
		levels = append(levels, row.Level)
	}

	var prof model.CollectionProficiency
	err = tx.Where("learner_id = ? AND collection_id = ?", learnerID, collectionID).
		FirstOrInit(&prof, model.CollectionProficiency{LearnerID: learnerID, CollectionID: collectionID}).Error
	if err != nil {
		return err
	}

	prof.LevelPct = CollectionPct(len(itemIDs), levels)
	return tx.Save(&prof).Error
}

func (s *AggregatorService) itemRowsTx(tx *gorm.DB, learnerID uint, itemIDs []string) ([]model.ItemProficiency, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var rows []model.ItemProficiency
	err := tx.Where("learner_id = ? AND item_id IN ?", learnerID, itemIDs).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetItemProficiency 条目掌握度，未作答过的条目返回 level=0 的默认值
func (s *AggregatorService) GetItemProficiency(learnerID uint, itemID string) (*model.ItemProficiency, error) {
	if _, err := s.itemRepo.GetByID(itemID); err != nil {
		return nil, err
	}
	prof, err := s.profRepo.GetItem(learnerID, itemID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		prof = &model.ItemProficiency{LearnerID: learnerID, ItemID: itemID, Level: 0}
	}
	return prof, nil
}

func (s *AggregatorService) GetCategoryProficiency(learnerID uint, categoryID string) (*model.CategoryProficiency, error) {
	if _, err := s.itemRepo.GetCategory(categoryID); err != nil {
		return nil, err
	}
	prof, err := s.profRepo.GetCategory(learnerID, categoryID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		prof = &model.CategoryProficiency{LearnerID: learnerID, CategoryID: categoryID, Level: 0}
	}
	return prof, nil
}

func (s *AggregatorService) GetCollectionProficiency(learnerID uint, collectionID string) (*model.CollectionProficiency, error) {
	if _, err := s.itemRepo.GetCollection(collectionID); err != nil {
		return nil, err
	}
	prof, err := s.profRepo.GetCollection(learnerID, collectionID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		prof = &model.CollectionProficiency{LearnerID: learnerID, CollectionID: collectionID, LevelPct: 0}
	}
	return prof, nil
}

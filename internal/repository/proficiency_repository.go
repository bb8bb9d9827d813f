package repository

import (
	"basebuilder_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ProficiencyRepository 掌握度数据的查询层。
// 写路径（作答落库 + 聚合重算）由 SchedulerService 在单个事务内完成。
type ProficiencyRepository struct {
	DB *gorm.DB
}

func NewProficiencyRepository(db *gorm.DB) *ProficiencyRepository {
	return &ProficiencyRepository{DB: db}
}

// GetItem 不存在时返回 (nil, nil)：缺行隐含 level=0，不物化
func (r *ProficiencyRepository) GetItem(learnerID uint, itemID string) (*model.ItemProficiency, error) {
	var prof model.ItemProficiency
	err := r.DB.Where("learner_id = ? AND item_id = ?", learnerID, itemID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// MapByItems 返回 itemID -> 掌握度行，缺失的条目不在结果中
func (r *ProficiencyRepository) MapByItems(learnerID uint, itemIDs []string) (map[string]model.ItemProficiency, error) {
	result := make(map[string]model.ItemProficiency, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []model.ItemProficiency
	err := r.DB.Where("learner_id = ? AND item_id IN ?", learnerID, itemIDs).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ItemID] = row
	}
	return result, nil
}

func (r *ProficiencyRepository) GetCategory(learnerID uint, categoryID string) (*model.CategoryProficiency, error) {
	var prof model.CategoryProficiency
	err := r.DB.Where("learner_id = ? AND category_id = ?", learnerID, categoryID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

func (r *ProficiencyRepository) GetCollection(learnerID uint, collectionID string) (*model.CollectionProficiency, error) {
	var prof model.CollectionProficiency
	err := r.DB.Where("learner_id = ? AND collection_id = ?", learnerID, collectionID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// ListDueItemIDs 到期待复习的条目（reviewDate <= now），按到期时间升序
func (r *ProficiencyRepository) ListDueItemIDs(learnerID uint, now time.Time) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.ItemProficiency{}).
		Where("learner_id = ? AND review_date <= ?", learnerID, now).
		Order("review_date ASC").
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListLowestMasteryItemIDs 掌握度最低的条目，到期条目不足时的回退候选
func (r *ProficiencyRepository) ListLowestMasteryItemIDs(learnerID uint, limit int) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.ItemProficiency{}).
		Where("learner_id = ? AND level < ?", learnerID, model.MaxLevel).
		Order("level ASC, review_date ASC").
		Limit(limit).
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

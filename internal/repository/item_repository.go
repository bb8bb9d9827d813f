package repository

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// ItemRepository 知识条目目录的只读访问层。引擎不修改目录内容。
type ItemRepository struct {
	DB *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{DB: db}
}

func (r *ItemRepository) GetByID(itemID string) (*model.KnowledgeItem, error) {
	var item model.KnowledgeItem
	err := r.DB.Preload("Choices").First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) GetCategory(categoryID string) (*model.Category, error) {
	var cat model.Category
	err := r.DB.First(&cat, "id = ?", categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *ItemRepository) GetCollection(collectionID string) (*model.Collection, error) {
	var col model.Collection
	err := r.DB.First(&col, "id = ?", collectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (r *ItemRepository) ListCategories() ([]model.Category, error) {
	var cats []model.Category
	if err := r.DB.Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// ListByCategory 返回分类下的全部条目（含未启用），供聚合计算使用
func (r *ItemRepository) ListByCategory(categoryID string) ([]model.KnowledgeItem, error) {
	var items []model.KnowledgeItem
	if err := r.DB.Where("category_id = ?", categoryID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByCollection 按集合内顺序返回条目
func (r *ItemRepository) ListByCollection(collectionID string) ([]model.KnowledgeItem, error) {
	var items []model.KnowledgeItem
	err := r.DB.
		Joins("JOIN collection_items ci ON ci.item_id = knowledge_items.id").
		Where("ci.collection_id = ?", collectionID).
		Order("ci.`order` ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListActiveIDs 全量目录的启用条目 ID（无历史学习者的候选集兜底）
func (r *ItemRepository) ListActiveIDs() ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.KnowledgeItem{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ItemRepository) ListActiveIDsByCategory(categoryID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.KnowledgeItem{}).
		Where("category_id = ? AND active = ?", categoryID, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ItemRepository) ListActiveIDsByCollection(collectionID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.KnowledgeItem{}).
		Joins("JOIN collection_items ci ON ci.item_id = knowledge_items.id").
		Where("ci.collection_id = ? AND knowledge_items.active = ?", collectionID, true).
		Order("ci.`order` ASC").
		Pluck("knowledge_items.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListDistractorCandidates 同分类下可作干扰项的启用条目（排除条目自身）
func (r *ItemRepository) ListDistractorCandidates(categoryID, excludeItemID string) ([]model.KnowledgeItem, error) {
	var items []model.KnowledgeItem
	err := r.DB.
		Where("category_id = ? AND id <> ? AND active = ?", categoryID, excludeItemID, true).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListCrossCategoryDistractors 其他分类的启用条目，同类干扰项不足时补位
func (r *ItemRepository) ListCrossCategoryDistractors(categoryID, excludeItemID string, limit int) ([]model.KnowledgeItem, error) {
	var items []model.KnowledgeItem
	err := r.DB.
		Where("category_id <> ? AND id <> ? AND active = ?", categoryID, excludeItemID, true).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

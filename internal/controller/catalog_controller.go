package controller

import (
	"basebuilder_backend/internal/repository"
	"basebuilder_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// CatalogController 知识目录的只读接口，供前端构建会话候选集过滤条件
type CatalogController struct {
	ItemRepo *repository.ItemRepository
}

func NewCatalogController(itemRepo *repository.ItemRepository) *CatalogController {
	return &CatalogController{ItemRepo: itemRepo}
}

// @Summary 分类列表
// @Tags 知识目录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/categories [get]
func (c *CatalogController) ListCategories(ctx *gin.Context) {
	cats, err := c.ItemRepo.ListCategories()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cats)
}

// @Summary 分类下的条目
// @Tags 知识目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Success 200 {object} util.Response
// @Router /api/categories/{id}/items [get]
func (c *CatalogController) ListCategoryItems(ctx *gin.Context) {
	if _, err := c.ItemRepo.GetCategory(ctx.Param("id")); err != nil {
		c.handleError(ctx, err)
		return
	}
	items, err := c.ItemRepo.ListByCategory(ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 集合内的条目（按序）
// @Tags 知识目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "集合ID"
// @Success 200 {object} util.Response
// @Router /api/collections/{id}/items [get]
func (c *CatalogController) ListCollectionItems(ctx *gin.Context) {
	if _, err := c.ItemRepo.GetCollection(ctx.Param("id")); err != nil {
		c.handleError(ctx, err)
		return
	}
	items, err := c.ItemRepo.ListByCollection(ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 条目详情
// @Tags 知识目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "条目ID"
// @Success 200 {object} util.Response
// @Router /api/items/{id} [get]
func (c *CatalogController) GetItem(ctx *gin.Context) {
	item, err := c.ItemRepo.GetByID(ctx.Param("id"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

func (c *CatalogController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrItemNotFound),
		errors.Is(err, util.ErrCategoryNotFound),
		errors.Is(err, util.ErrCollectionNotFound):
		util.NotFound(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

package controller

import (
	"basebuilder_backend/internal/service"
	"basebuilder_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ProficiencyController struct {
	Aggregator *service.AggregatorService
}

func NewProficiencyController(aggregator *service.AggregatorService) *ProficiencyController {
	return &ProficiencyController{Aggregator: aggregator}
}

// @Summary 条目掌握度
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "条目ID"
// @Success 200 {object} util.Response
// @Router /api/proficiency/items/{itemId} [get]
func (c *ProficiencyController) GetItemProficiency(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	prof, err := c.Aggregator.GetItemProficiency(learner.LearnerID, ctx.Param("itemId"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, prof)
}

// @Summary 分类掌握度
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param categoryId path string true "分类ID"
// @Success 200 {object} util.Response
// @Router /api/proficiency/categories/{categoryId} [get]
func (c *ProficiencyController) GetCategoryProficiency(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	prof, err := c.Aggregator.GetCategoryProficiency(learner.LearnerID, ctx.Param("categoryId"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, prof)
}

// @Summary 集合完成度
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param collectionId path string true "集合ID"
// @Success 200 {object} util.Response
// @Router /api/proficiency/collections/{collectionId} [get]
func (c *ProficiencyController) GetCollectionProficiency(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	prof, err := c.Aggregator.GetCollectionProficiency(learner.LearnerID, ctx.Param("collectionId"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, prof)
}

// @Summary 重算分类掌握度
// @Description 修复入口：对当前学习者全量重算该分类
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param categoryId path string true "分类ID"
// @Success 200 {object} util.Response
// @Router /api/proficiency/categories/{categoryId}/recompute [post]
func (c *ProficiencyController) RecomputeCategory(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	prof, err := c.Aggregator.RecomputeCategory(learner.LearnerID, ctx.Param("categoryId"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, prof)
}

// @Summary 重算集合完成度
// @Tags 掌握度
// @Produce json
// @Security BearerAuth
// @Param collectionId path string true "集合ID"
// @Success 200 {object} util.Response
// @Router /api/proficiency/collections/{collectionId}/recompute [post]
func (c *ProficiencyController) RecomputeCollection(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	prof, err := c.Aggregator.RecomputeCollection(learner.LearnerID, ctx.Param("collectionId"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, prof)
}

func (c *ProficiencyController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrItemNotFound),
		errors.Is(err, util.ErrCategoryNotFound),
		errors.Is(err, util.ErrCollectionNotFound):
		util.NotFound(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

package controller

import (
	"basebuilder_backend/internal/service"
	"basebuilder_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// @Summary 开始学习会话
// @Description 按候选集策略创建有界学习会话
// @Tags 学习会话
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body service.StartSessionRequest true "候选集来源"
// @Success 201 {object} util.Response
// @Router /api/sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.StartSession(learner.LearnerID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyCandidateSet):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrCategoryNotFound), errors.Is(err, util.ErrCollectionNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, session)
}

// @Summary 获取下一道题
// @Description 按 80/20 最弱优先策略选题，并决定呈现方式
// @Tags 学习会话
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/next [get]
func (c *SessionController) NextItem(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SessionService.NextItem(learner.LearnerID, ctx.Param("id"))
	if err != nil {
		c.handleSessionError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 提交作答
// @Description 判题、更新掌握度并推进会话
// @Tags 学习会话
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param attempt body service.SubmitAttemptRequest true "作答内容"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/attempts [post]
func (c *SessionController) SubmitAttempt(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.SubmitAttempt(learner.LearnerID, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyAnswer), errors.Is(err, util.ErrItemNotInSession):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrSessionTerminated):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrConflict):
			util.Conflict(ctx, err.Error())
		default:
			c.handleSessionError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// @Summary 会话总结
// @Description 汇总本次会话的作答与掌握度快照，之后会话即销毁
// @Tags 学习会话
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/summary [post]
func (c *SessionController) Summarize(ctx *gin.Context) {
	learner := util.GetLearnerFromContext(ctx)
	if learner == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.SessionService.Summarize(learner.LearnerID, ctx.Param("id"))
	if err != nil {
		c.handleSessionError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

func (c *SessionController) handleSessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrItemNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

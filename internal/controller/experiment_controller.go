package controller

import (
	"errors"
	"strconv"

	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/service"
	"owl_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExperimentController struct {
	Service *service.ExperimentService
}

func NewExperimentController(svc *service.ExperimentService) *ExperimentController {
	return &ExperimentController{Service: svc}
}

// @Summary 创建实验
// @Tags 实验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ExperimentRequest true "实验信息"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/experiments [post]
func (c *ExperimentController) Create(ctx *gin.Context) {
	var req service.ExperimentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	e, err := c.Service.Create(req)
	if err != nil {
		if errors.Is(err, util.ErrSlugTaken) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, e)
}

// @Summary 获取实验列表
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "状态筛选"
// @Param group query string false "分组筛选"
// @Param archived query bool false "归档筛选"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/admin/experiments [get]
func (c *ExperimentController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.ExperimentFilter{
		Status: ctx.Query("status"),
		Group:  ctx.Query("group"),
	}
	if v := ctx.Query("archived"); v != "" {
		archived := v == "true"
		filter.Archived = &archived
	}

	es, total, err := c.Service.List(filter, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: es, Total: total, Page: page, Limit: limit})
}

// @Summary 获取公开的active实验列表
// @Tags 评测任务
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/experiments [get]
func (c *ExperimentController) ListActive(ctx *gin.Context) {
	es, err := c.Service.ListActive()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, es)
}

// @Summary 获取实验详情
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "实验ID"
// @Success 200 {object} util.Response
// @Router /api/admin/experiments/{id} [get]
func (c *ExperimentController) Get(ctx *gin.Context) {
	e, err := c.Service.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// @Summary 按slug获取实验
// @Tags 评测任务
// @Produce json
// @Param slug path string true "实验slug"
// @Success 200 {object} util.Response
// @Router /api/experiments/slug/{slug} [get]
func (c *ExperimentController) GetBySlug(ctx *gin.Context) {
	e, err := c.Service.GetBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// @Summary 更新实验
// @Tags 实验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "实验ID"
// @Param body body service.ExperimentRequest true "实验信息"
// @Success 200 {object} util.Response
// @Router /api/admin/experiments/{id} [put]
func (c *ExperimentController) Update(ctx *gin.Context) {
	var req service.ExperimentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	e, err := c.Service.Update(ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExperimentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSlugTaken):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, e)
}

// @Summary 归档/取消归档实验
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "实验ID"
// @Param archived query bool true "是否归档"
// @Success 200 {object} util.Response
// @Router /api/admin/experiments/{id}/archive [post]
func (c *ExperimentController) SetArchived(ctx *gin.Context) {
	archived := ctx.DefaultQuery("archived", "true") == "true"
	if err := c.Service.SetArchived(ctx.Param("id"), archived); err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 删除实验
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "实验ID"
// @Success 200 {object} util.Response
// @Router /api/admin/experiments/{id} [delete]
func (c *ExperimentController) Delete(ctx *gin.Context) {
	if err := c.Service.Delete(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

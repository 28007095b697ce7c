package controller

import (
	"errors"
	"net/http"

	"owl_eval_backend/internal/service"
	"owl_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ComparisonController struct {
	Service *service.ComparisonService
}

func NewComparisonController(svc *service.ComparisonService) *ComparisonController {
	return &ComparisonController{Service: svc}
}

// @Summary 获取对比任务列表
// @Description 指定experimentId时返回该实验的任务；否则返回所有active实验的任务
// @Tags 评测任务
// @Produce json
// @Param experimentId query string false "实验ID"
// @Success 200 {array} service.ComparisonListItem
// @Router /api/comparisons [get]
func (c *ComparisonController) List(ctx *gin.Context) {
	items, err := c.Service.List(ctx.Query("experimentId"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comparisons"})
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// @Summary 获取对比任务详情
// @Description 评测页面用，视频地址已改写为代理路径
// @Tags 评测任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} service.ComparisonDetail
// @Failure 404 {object} map[string]string
// @Router /api/comparisons/{id} [get]
func (c *ComparisonController) GetDetail(ctx *gin.Context) {
	detail, err := c.Service.GetDetail(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrComparisonNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comparison"})
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// @Summary 获取任务（对比或单视频）
// @Tags 评测任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} service.TaskResult
// @Failure 404 {object} map[string]string
// @Router /api/tasks/{id} [get]
func (c *ComparisonController) GetTask(ctx *gin.Context) {
	result, err := c.Service.GetTask(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// @Summary 创建对比任务
// @Tags 实验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ComparisonRequest true "任务信息"
// @Success 201 {object} util.Response
// @Router /api/admin/comparisons [post]
func (c *ComparisonController) Create(ctx *gin.Context) {
	var req service.ComparisonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	comparison, err := c.Service.Create(req)
	if err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, comparison)
}

// @Summary 更新对比任务
// @Tags 实验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param body body service.ComparisonRequest true "任务信息"
// @Success 200 {object} util.Response
// @Router /api/admin/comparisons/{id} [put]
func (c *ComparisonController) Update(ctx *gin.Context) {
	var req service.ComparisonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	comparison, err := c.Service.Update(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrComparisonNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, comparison)
}

// @Summary 删除对比任务
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} util.Response
// @Router /api/admin/comparisons/{id} [delete]
func (c *ComparisonController) Delete(ctx *gin.Context) {
	if err := c.Service.Delete(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrComparisonNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 创建单视频任务
// @Tags 实验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SingleVideoTaskRequest true "任务信息"
// @Success 201 {object} util.Response
// @Router /api/admin/video-tasks [post]
func (c *ComparisonController) CreateSingleVideoTask(ctx *gin.Context) {
	var req service.SingleVideoTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.Service.CreateSingleVideoTask(req)
	if err != nil {
		if errors.Is(err, util.ErrExperimentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, task)
}

// @Summary 获取单视频任务列表
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param experimentId query string true "实验ID"
// @Success 200 {object} util.Response
// @Router /api/admin/video-tasks [get]
func (c *ComparisonController) ListSingleVideoTasks(ctx *gin.Context) {
	tasks, err := c.Service.ListSingleVideoTasks(ctx.Query("experimentId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tasks)
}

// @Summary 删除单视频任务
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} util.Response
// @Router /api/admin/video-tasks/{id} [delete]
func (c *ComparisonController) DeleteSingleVideoTask(ctx *gin.Context) {
	if err := c.Service.DeleteSingleVideoTask(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrTaskNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

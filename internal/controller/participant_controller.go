package controller

import (
	"errors"
	"strconv"

	"owl_eval_backend/internal/service"
	"owl_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ParticipantController struct {
	Service *service.ParticipantService
}

func NewParticipantController(svc *service.ParticipantService) *ParticipantController {
	return &ParticipantController{Service: svc}
}

// @Summary 获取实验的参与者列表
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param experimentId query string true "实验ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/admin/participants [get]
func (c *ParticipantController) List(ctx *gin.Context) {
	experimentID := ctx.Query("experimentId")
	if experimentID == "" {
		util.BadRequest(ctx, "experimentId is required")
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ps, total, err := c.Service.ListByExperiment(experimentID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: ps, Total: total, Page: page, Limit: limit})
}

// @Summary 获取参与者详情（含评测记录）
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "参与者ID"
// @Success 200 {object} util.Response
// @Router /api/admin/participants/{id} [get]
func (c *ParticipantController) Get(ctx *gin.Context) {
	p, err := c.Service.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrParticipantNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// @Summary 标记参与者为returned
// @Description returned参与者的提交不再计入统计
// @Tags 实验管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "参与者ID"
// @Success 200 {object} util.Response
// @Router /api/admin/participants/{id}/return [post]
func (c *ParticipantController) MarkReturned(ctx *gin.Context) {
	if err := c.Service.MarkReturned(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrParticipantNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

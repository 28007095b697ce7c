package controller

import (
	"net/http"

	"owl_eval_backend/internal/service"
	"owl_eval_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsController 聚合统计接口，响应保持前端约定的扁平JSON
type StatsController struct {
	Service *service.StatsService
}

func NewStatsController(svc *service.StatsService) *StatsController {
	return &StatsController{Service: svc}
}

// @Summary 按状态统计评测数
// @Tags 统计
// @Produce json
// @Success 200 {object} service.EvaluationStatus
// @Router /api/evaluation-status [get]
func (c *StatsController) EvaluationStatus(ctx *gin.Context) {
	status, err := c.Service.EvaluationStatus()
	if err != nil {
		logger.Log.Error("Error fetching evaluation status", zap.Error(err))
		// 仪表盘容错：失败时返回零值而非错误
		ctx.JSON(http.StatusOK, service.EvaluationStatus{})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// @Summary 提交总量统计
// @Tags 统计
// @Produce json
// @Param group query string false "实验分组筛选"
// @Param includeAnonymous query bool false "是否计入匿名session参与者"
// @Success 200 {object} service.SubmissionStats
// @Router /api/submission-stats [get]
func (c *StatsController) SubmissionStats(ctx *gin.Context) {
	group := ctx.Query("group")
	includeAnonymous := ctx.Query("includeAnonymous") == "true"

	stats, err := c.Service.SubmissionStats(group, includeAnonymous)
	if err != nil {
		logger.Log.Error("Error fetching stats", zap.Error(err))
		ctx.JSON(http.StatusOK, service.SubmissionStats{
			EvaluationsByScenario:    map[string]int64{},
			TargetEvaluationsPerTask: 5,
		})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

package controller

import (
	"errors"
	"net/http"

	"owl_eval_backend/internal/service"
	"owl_eval_backend/internal/util"
	"owl_eval_backend/pkg/logger"
	"owl_eval_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmissionController 评测提交入口。响应体保持与前端约定的扁平JSON，
// 不走统一Response封装。
type SubmissionController struct {
	Service *service.SubmissionService
}

func NewSubmissionController(svc *service.SubmissionService) *SubmissionController {
	return &SubmissionController{Service: svc}
}

// @Summary 提交双视频对比评测
// @Description 匿名或Prolific参与者提交一次对比判定，返回评测ID和下一个待评测任务
// @Tags 评测提交
// @Accept json
// @Produce json
// @Param body body service.SubmitEvaluationRequest true "提交内容"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/submit-evaluation [post]
func (c *SubmissionController) SubmitEvaluation(ctx *gin.Context) {
	var req service.SubmitEvaluationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: comparison_id and dimension_scores",
		})
		return
	}

	result, err := c.Service.SubmitEvaluation(req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMissingFields):
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing required fields: comparison_id and dimension_scores",
			})
		case errors.Is(err, util.ErrComparisonNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
		case errors.Is(err, util.ErrEvaluationCompleted):
			ctx.JSON(http.StatusConflict, gin.H{"error": "Evaluation already completed for this participant"})
		default:
			logger.Log.Error("Error submitting evaluation", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit evaluation"})
		}
		return
	}

	monitoring.EvaluationCounter.WithLabelValues(result.ExperimentID, "comparison").Inc()

	var next interface{}
	if result.NextComparisonID != nil {
		next = *result.NextComparisonID
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success":            true,
		"evaluation_id":      result.EvaluationID,
		"next_comparison_id": next,
	})
}

// @Summary 提交单视频评测
// @Tags 评测提交
// @Accept json
// @Produce json
// @Param body body service.SubmitSingleVideoRequest true "提交内容"
// @Success 200 {object} map[string]interface{}
// @Router /api/submit-video-evaluation [post]
func (c *SubmissionController) SubmitSingleVideo(ctx *gin.Context) {
	var req service.SubmitSingleVideoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: task_id and scores"})
		return
	}

	id, err := c.Service.SubmitSingleVideo(req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMissingFields):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: task_id and scores"})
		case errors.Is(err, util.ErrTaskNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, util.ErrEvaluationCompleted):
			ctx.JSON(http.StatusConflict, gin.H{"error": "Evaluation already completed for this participant"})
		default:
			logger.Log.Error("Error submitting video evaluation", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit evaluation"})
		}
		return
	}

	monitoring.EvaluationCounter.WithLabelValues(req.ExperimentID, "single_video").Inc()

	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"submission_id": id,
	})
}

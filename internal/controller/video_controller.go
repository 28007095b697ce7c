package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"owl_eval_backend/internal/service"
	"owl_eval_backend/internal/util"
	"owl_eval_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VideoController struct {
	Service *service.VideoService
}

func NewVideoController(svc *service.VideoService) *VideoController {
	return &VideoController{Service: svc}
}

// @Summary 上传视频到视频库
// @Tags 视频库
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "视频文件"
// @Param modelName formData string true "模型名"
// @Param scenario formData string true "场景ID"
// @Success 201 {object} util.Response
// @Router /api/admin/videos/upload [post]
func (c *VideoController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	modelName := ctx.PostForm("modelName")
	scenario := ctx.PostForm("scenario")
	if modelName == "" || scenario == "" {
		util.BadRequest(ctx, "modelName and scenario are required")
		return
	}

	v, err := c.Service.Upload(ctx.Request.Context(), file, modelName, scenario)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, v)
}

// @Summary 获取视频库列表
// @Tags 视频库
// @Produce json
// @Security ApiKeyAuth
// @Param modelName query string false "模型名筛选"
// @Param scenario query string false "场景筛选"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/admin/videos [get]
func (c *VideoController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	vs, total, err := c.Service.List(ctx.Query("modelName"), ctx.Query("scenario"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: vs, Total: total, Page: page, Limit: limit})
}

// @Summary 删除视频
// @Tags 视频库
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视频ID"
// @Success 200 {object} util.Response
// @Router /api/admin/videos/{id} [delete]
func (c *VideoController) Delete(ctx *gin.Context) {
	if err := c.Service.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 视频流代理
// @Description 按存储key读出视频流，供评测页面播放外部bucket中的视频
// @Tags 评测任务
// @Produce octet-stream
// @Param path path string true "存储key"
// @Success 200 {file} binary
// @Router /api/video/{path} [get]
func (c *VideoController) Stream(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("path"), "/")
	if key == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing video path"})
		return
	}

	reader, err := c.Service.Stream(ctx.Request.Context(), key)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	defer reader.Close()

	ctx.Header("Content-Type", "video/mp4")
	ctx.Header("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(ctx.Writer, reader); err != nil {
		logger.Log.Warn("video stream interrupted", zap.String("key", key), zap.Error(err))
	}
}

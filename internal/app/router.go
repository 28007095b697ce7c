package app

import (
	"owl_eval_backend/docs"
	"owl_eval_backend/internal/config"
	"owl_eval_backend/internal/middleware"
	"owl_eval_backend/internal/model"
	"owl_eval_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(评测页面与Prolific参与者，无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
	}

	// 3. 管理端接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 实验与任务读取
		public.GET("/experiments", c.experiment.ListActive)
		public.GET("/experiments/slug/:slug", c.experiment.GetBySlug)
		public.GET("/comparisons", c.comparison.List)
		public.GET("/comparisons/:id", c.comparison.GetDetail)
		public.GET("/tasks/:id", c.comparison.GetTask)

		// 评测提交
		public.POST("/submit-evaluation", c.submission.SubmitEvaluation)
		public.POST("/submit-video-evaluation", c.submission.SubmitSingleVideo)

		// 统计
		public.GET("/evaluation-status", c.stats.EvaluationStatus)
		public.GET("/submission-stats", c.stats.SubmissionStats)

		// 外部bucket视频流代理
		public.GET("/video/*path", c.video.Stream)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(
		middleware.AuthMiddleware(cfg),
		middleware.RoleMiddleware(model.Admin),
		middleware.ActivityMiddleware(repos.user),
	)
	{
		// 用户管理
		admin.POST("/users", c.auth.CreateUser)

		// 实验管理
		admin.POST("/experiments", c.experiment.Create)
		admin.GET("/experiments", c.experiment.List)
		admin.GET("/experiments/:id", c.experiment.Get)
		admin.PUT("/experiments/:id", c.experiment.Update)
		admin.POST("/experiments/:id/archive", c.experiment.SetArchived)
		admin.DELETE("/experiments/:id", c.experiment.Delete)

		// 对比任务管理
		admin.POST("/comparisons", c.comparison.Create)
		admin.PUT("/comparisons/:id", c.comparison.Update)
		admin.DELETE("/comparisons/:id", c.comparison.Delete)

		// 单视频任务管理
		admin.POST("/video-tasks", c.comparison.CreateSingleVideoTask)
		admin.GET("/video-tasks", c.comparison.ListSingleVideoTasks)
		admin.DELETE("/video-tasks/:id", c.comparison.DeleteSingleVideoTask)

		// 参与者管理
		admin.GET("/participants", c.participant.List)
		admin.GET("/participants/:id", c.participant.Get)
		admin.POST("/participants/:id/return", c.participant.MarkReturned)

		// 视频库
		admin.POST("/videos/upload", c.video.Upload)
		admin.GET("/videos", c.video.List)
		admin.DELETE("/videos/:id", c.video.Delete)
	}
}

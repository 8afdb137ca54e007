package handler

import (
	"net/http"

	"agri-price-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RouterOptions 路由依赖
type RouterOptions struct {
	Handler      *Handler
	Auth         *Authenticator
	Limiter      *rate.Limiter // 生成接口限流，nil不限流
	Recorder     middleware.HTTPRecorder
	Metrics      http.Handler // nil不挂载
	MetricsPath  string
	AllowOrigins []string
	Middlewares  []gin.HandlerFunc
}

// NewRouter 注册全部路由
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	r.Use(opts.Middlewares...)
	if opts.Recorder != nil {
		r.Use(middleware.Metrics(opts.Recorder))
	}

	// 配置 CORS
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	}
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics))
	}

	h := opts.Handler
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		prices := api.Group("/prices")
		{
			prices.GET("/latest", h.GetLatest)
			prices.GET("/list", h.GetList)
			prices.GET("/date/:date", h.GetByDate)
			prices.GET("/range", h.GetByDateRange)
			prices.GET("/ranking", h.GetRanking)
			prices.GET("/product/:productName/trend", h.GetProductTrend)
			prices.GET("/export", h.ExportExcel)
		}

		statistics := api.Group("/statistics")
		{
			statistics.GET("/overview", h.GetOverview)
			statistics.GET("/products", h.GetProductStatistics)
			statistics.GET("/monthly", h.GetMonthlyStatistics)
			statistics.GET("/change-stats", h.GetChangeStatistics)
		}

		analysis := api.Group("/analysis")
		{
			analysis.GET("/prediction", h.GetPrediction)
			analysis.GET("/moving-average", h.GetMovingAverage)
			analysis.GET("/trend", h.GetTrendAnalysis)
			analysis.GET("/correlation", h.GetCorrelation)
			analysis.GET("/seasonality", h.GetSeasonality)
			analysis.GET("/indicators", h.GetIndicators)
		}

		if opts.Auth != nil {
			api.POST("/auth/verify", opts.Auth.VerifyAdminCode)

			guarded := []gin.HandlerFunc{opts.Auth.AuthMiddleware()}
			if opts.Limiter != nil {
				guarded = append(guarded, middleware.RateLimit(opts.Limiter))
			}
			api.POST("/generate", append(guarded, h.Generate)...)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "接口不存在",
		})
	})
	return r
}

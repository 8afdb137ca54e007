package handler

import (
	"errors"
	"net/http"

	"agri-price-backend/internal/analysis"
	"agri-price-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPrediction 价格预测
func (h *Handler) GetPrediction(c *gin.Context) {
	method := c.DefaultQuery("method", analysis.MethodMovingAverage)
	data, err := h.svc.Predict(c.Request.Context(), queryInt(c, "days", analysis.DefaultForecastDays), method)
	if errors.Is(err, service.ErrInsufficientHistory) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "历史数据不足，无法预测",
		})
		return
	}
	if err != nil {
		fail(c, err, "价格预测失败")
		return
	}
	ok(c, data)
}

// GetMovingAverage 移动平均线
func (h *Handler) GetMovingAverage(c *gin.Context) {
	periods, err := queryInts(c, "periods")
	if err != nil {
		badRequest(c, "periods 格式错误")
		return
	}
	data, err := h.svc.MovingAverage(c.Request.Context(), queryInt(c, "days", 90), periods)
	if err != nil {
		fail(c, err, "计算移动平均线失败")
		return
	}
	ok(c, data)
}

// GetTrendAnalysis 趋势分析
func (h *Handler) GetTrendAnalysis(c *gin.Context) {
	data, err := h.svc.Trend(c.Request.Context(), queryInt(c, "days", 365))
	if err != nil {
		fail(c, err, "趋势分析失败")
		return
	}
	ok(c, data)
}

// GetCorrelation 相关性分析（产品间价格相关性）
func (h *Handler) GetCorrelation(c *gin.Context) {
	data, err := h.svc.Correlation(c.Request.Context(), queryInt(c, "days", 90))
	if err != nil {
		fail(c, err, "相关性分析失败")
		return
	}
	ok(c, data)
}

// GetIndicators 指数技术指标
func (h *Handler) GetIndicators(c *gin.Context) {
	data, err := h.svc.Indicators(c.Request.Context(), queryInt(c, "days", 120))
	if err != nil {
		fail(c, err, "计算技术指标失败")
		return
	}
	ok(c, data)
}

// GetSeasonality 季节性分析
func (h *Handler) GetSeasonality(c *gin.Context) {
	data, err := h.svc.Seasonality(c.Request.Context())
	if err != nil {
		fail(c, err, "季节性分析失败")
		return
	}
	ok(c, data)
}

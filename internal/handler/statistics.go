package handler

import "github.com/gin-gonic/gin"

// GetOverview 概览统计
func (h *Handler) GetOverview(c *gin.Context) {
	data, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		fail(c, err, "获取概览统计失败")
		return
	}
	ok(c, data)
}

// GetProductStatistics 产品价格统计
func (h *Handler) GetProductStatistics(c *gin.Context) {
	data, err := h.svc.ProductStats(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		fail(c, err, "获取产品统计失败")
		return
	}
	ok(c, data)
}

// GetMonthlyStatistics 月度统计
func (h *Handler) GetMonthlyStatistics(c *gin.Context) {
	data, err := h.svc.Monthly(c.Request.Context())
	if err != nil {
		fail(c, err, "获取月度统计失败")
		return
	}
	ok(c, data)
}

// GetChangeStatistics 涨跌统计
func (h *Handler) GetChangeStatistics(c *gin.Context) {
	data, err := h.svc.ChangeStats(c.Request.Context(), queryInt(c, "days", 90))
	if err != nil {
		fail(c, err, "获取涨跌统计失败")
		return
	}
	ok(c, data)
}

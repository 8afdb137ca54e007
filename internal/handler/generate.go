package handler

import (
	"net/http"

	"agri-price-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Generate 重新生成模拟数据并替换当前数据集
func (h *Handler) Generate(c *gin.Context) {
	var req service.GenerateRequest
	if errs := bindAndValidate(c, &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"errors":  errs,
		})
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("end_date", req.EndDate).Int("days", req.Days).Msg("生成数据失败")
		fail(c, err, "生成数据失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "数据生成成功",
		"data":    res,
	})
}

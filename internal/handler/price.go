package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"agri-price-backend/internal/export"
	"agri-price-backend/internal/service"
	"agri-price-backend/internal/synth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler 价格API
type Handler struct {
	svc *service.PriceService
	log zerolog.Logger
}

func New(svc *service.PriceService, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// GetLatest 获取最新价格数据
func (h *Handler) GetLatest(c *gin.Context) {
	prices := h.svc.Latest(queryInt(c, "limit", 1))
	okCount(c, prices, len(prices))
}

// GetList 获取价格列表（分页）
func (h *Handler) GetList(c *gin.Context) {
	prices, pagination := h.svc.List(
		queryInt(c, "page", service.DefaultPage),
		queryInt(c, "limit", service.DefaultLimit),
	)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       prices,
		"pagination": pagination,
	})
}

// GetByDate 获取指定日期的价格
func (h *Handler) GetByDate(c *gin.Context) {
	price, err := h.svc.ByDate(c.Param("date"))
	if errors.Is(err, synth.ErrInvalidArgument) {
		fail(c, err, "日期格式错误，应为YYYY-MM-DD")
		return
	}
	if err != nil {
		fail(c, err, "未找到该日期的数据")
		return
	}
	ok(c, price)
}

// GetByDateRange 获取日期范围内的价格
func (h *Handler) GetByDateRange(c *gin.Context) {
	startDate, endDate := c.Query("startDate"), c.Query("endDate")
	if startDate == "" || endDate == "" {
		badRequest(c, "请提供开始日期和结束日期")
		return
	}
	prices, err := h.svc.Range(startDate, endDate)
	if err != nil {
		fail(c, err, "获取价格范围数据失败")
		return
	}
	okCount(c, prices, len(prices))
}

// GetRanking 获取价格排行榜（涨幅最大/最小）
func (h *Handler) GetRanking(c *gin.Context) {
	kind := c.DefaultQuery("type", service.RankIncrease)
	if kind != service.RankIncrease && kind != service.RankDecrease {
		badRequest(c, "type 只能是 increase 或 decrease")
		return
	}
	prices := h.svc.Ranking(kind, queryInt(c, "limit", service.DefaultRankLimit), queryInt(c, "days", 30))
	okCount(c, prices, len(prices))
}

// GetProductTrend 获取特定产品的价格趋势
func (h *Handler) GetProductTrend(c *gin.Context) {
	product := c.Param("productName")
	trend, err := h.svc.ProductTrend(product, queryInt(c, "days", 30))
	if err != nil {
		fail(c, err, "获取产品趋势失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    trend,
		"product": product,
		"count":   len(trend),
	})
}

// ExportExcel 导出xlsx
func (h *Handler) ExportExcel(c *gin.Context) {
	records := h.svc.Records()
	if days := queryInt(c, "days", 0); days > 0 && days < len(records) {
		records = records[len(records)-days:]
	}
	wb, err := export.Build(records, h.svc.Catalog())
	if err != nil {
		fail(c, err, "导出失败")
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		fail(c, fmt.Errorf("write excel failed: %w", err), "导出失败")
		return
	}
	name := "agri_prices.xlsx"
	if len(records) > 0 {
		name = fmt.Sprintf("agri_prices_%s.xlsx", strings.ReplaceAll(records[len(records)-1].Date, "-", ""))
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

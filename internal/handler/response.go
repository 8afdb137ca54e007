package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"agri-price-backend/internal/service"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func okCount(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   count,
	})
}

// fail 按错误类型映射状态码，message为对外提示
func fail(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, synth.ErrInvalidArgument), errors.Is(err, service.ErrInsufficientHistory):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrGenerateBusy):
		status = http.StatusConflict
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}

// queryInt 解析整数参数，无效或非正时使用默认值
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// queryInts 解析逗号分隔的整数列表
func queryInts(c *gin.Context, key string) ([]int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

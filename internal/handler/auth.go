package handler

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// DefaultTokenTTL token有效期
const DefaultTokenTTL = 24 * time.Hour

// Authenticator 管理员验证码与token
type Authenticator struct {
	adminCode string
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthenticator 未配置secret时随机生成，重启后旧token失效
func NewAuthenticator(adminCode, secret string, ttl time.Duration) *Authenticator {
	if secret == "" {
		secret = GenerateRandomCode(32)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		adminCode: adminCode,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// AdminCode 当前管理员验证码
func (a *Authenticator) AdminCode() string {
	return a.adminCode
}

// GenerateRandomCode 生成随机验证码
func GenerateRandomCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	code := make([]byte, length)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		code[i] = charset[n.Int64()]
	}
	return string(code)
}

// GenerateToken 生成token: timestamp.signature
func (a *Authenticator) GenerateToken() string {
	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	return fmt.Sprintf("%s.%s", timestamp, a.sign(timestamp))
}

func (a *Authenticator) sign(timestamp string) string {
	h := hmac.New(sha256.New, a.secret)
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateToken 验证token签名和有效期
func (a *Authenticator) ValidateToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}
	timestamp, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(a.sign(timestamp))) {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	return a.now().Sub(time.Unix(ts, 0)) <= a.ttl
}

// VerifyAdminCode 验证管理员验证码
func (a *Authenticator) VerifyAdminCode(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
		})
		return
	}

	if a.adminCode == "" || !hmac.Equal([]byte(req.Code), []byte(a.adminCode)) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "验证码错误",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "验证成功",
		"token":     a.GenerateToken(),
		"expiresIn": int(a.ttl.Seconds()),
	})
}

// AuthMiddleware 认证中间件
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "未授权访问",
			})
			return
		}

		// 去掉 Bearer 前缀
		token = strings.TrimPrefix(token, "Bearer ")

		if !a.ValidateToken(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "token无效或已过期",
			})
			return
		}

		c.Next()
	}
}

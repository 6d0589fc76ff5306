package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"EC": 1, "EM": message})
	c.Abort()
}

func parseToken(c *gin.Context, secret []byte) (*customClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims := &customClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *customClaims) bool {
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return false
	}
	c.Set("userID", uint(uid))
	c.Set("email", claims.Email)
	c.Set("userName", claims.Name)

	role := strings.TrimSpace(strings.ToLower(claims.Role))
	if role == "" {
		role = "user"
	}
	c.Set("role", role)
	return true
}

// AuthMiddleware 校验 JWT 并将用户身份写入上下文, 失败返回 401。
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret)
		if !ok {
			unauthorized(c, "Bạn chưa đăng nhập")
			return
		}
		if !setIdentity(c, claims) {
			unauthorized(c, "Token không hợp lệ")
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware 尝试解析 JWT, 失败时继续按匿名处理。
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		if claims, ok := parseToken(c, secret); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// RequireAdmin 仅放行 role 为 admin 的请求, 需在 AuthMiddleware 之后。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"EC": 2, "EM": "Bạn không có quyền truy cập"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID 读取上下文中的用户标识, 匿名请求返回 nil。
func UserID(c *gin.Context) *uint {
	v, ok := c.Get("userID")
	if !ok {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	return &id
}

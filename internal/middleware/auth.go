package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

type JWTConfig struct {
	Secret string
}

// Claims 登录令牌中携带的用户信息
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken 签发HS256令牌
func GenerateToken(userID, username, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken 校验签名和过期时间
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewJWTAuth 从Authorization: Bearer <token>中解析用户，失败返回401
func NewJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := ParseToken(tokenString, cfg.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// NewOptionalJWTAuth 用于公开路由：令牌有效时写入当前用户，缺失或无效时按匿名继续
func NewOptionalJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := ParseToken(tokenString, cfg.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin 只放行userIDs中的用户，挂在NewJWTAuth之后
func RequireAdmin(userIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := strings.ToLower(GetUserID(c))
		if _, ok := allowed[userID]; !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	tokenString = strings.TrimSpace(tokenString)
	return tokenString, ok && tokenString != ""
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextUsernameKey, claims.Username)
}

// GetUserID 当前登录用户ID，未认证时为空
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

package util

import (
	"basebuilder_backend/internal/model"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const learnerContextKey = "learner"

// LearnerClaims 学习者令牌载荷。引擎按 LearnerID 划分全部掌握度数据，
// Role 只用于重算等修复入口的权限判定。
type LearnerClaims struct {
	LearnerID uint           `json:"learnerId"`
	Role      model.UserRole `json:"role"`
	Email     string         `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	now := time.Now()

	claims := &LearnerClaims{
		LearnerID: user.ID,
		Role:      user.Role,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*LearnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LearnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*LearnerClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// SetLearnerContext 认证中间件把解析后的载荷挂到请求上下文
func SetLearnerContext(c *gin.Context, claims *LearnerClaims) {
	c.Set(learnerContextKey, claims)
}

// GetLearnerFromContext 取当前请求的学习者载荷，未认证时返回 nil
func GetLearnerFromContext(c *gin.Context) *LearnerClaims {
	v, exists := c.Get(learnerContextKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*LearnerClaims)
	if !ok {
		return nil
	}
	return claims
}

package util

import (
	"basebuilder_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{
		Name:  "测试学习者",
		Email: "learner@example.com",
		Role:  model.Student,
	}
	user.ID = 42

	token, err := GenerateJWT(user, "unit-test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token, "unit-test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.LearnerID)
	assert.Equal(t, model.Student, claims.Role)
	assert.Equal(t, "learner@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)

	// 密钥不匹配必须拒绝
	_, err = ParseJWT(token, "wrong-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	user := &model.User{Email: "learner@example.com", Role: model.Student}
	user.ID = 7

	token, err := GenerateJWT(user, "unit-test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "unit-test-secret")
	assert.Error(t, err)
}

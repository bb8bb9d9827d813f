package repository

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 学习会话的 Redis 存储。
// 会话是显式传递的值对象，带 TTL；学习者放弃会话后由 Redis 过期回收。
type SessionRepository struct {
	Redis *redis.Client
	ctx   context.Context
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("basebuilder:session:%s", sessionID)
}

func (r *SessionRepository) Save(session *model.LearningSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.Redis.Set(r.ctx, sessionKey(session.ID), data, ttl).Err()
}

func (r *SessionRepository) Get(sessionID string) (*model.LearningSession, error) {
	data, err := r.Redis.Get(r.ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session model.LearningSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Delete(sessionID string) error {
	return r.Redis.Del(r.ctx, sessionKey(sessionID)).Err()
}

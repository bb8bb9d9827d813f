package service

import (
	"basebuilder_backend/internal/config"
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/repository"
	"basebuilder_backend/internal/util"
	"basebuilder_backend/pkg/database"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"basebuilder_backend/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type testEngine struct {
	db          *gorm.DB
	itemRepo    *repository.ItemRepository
	profRepo    *repository.ProficiencyRepository
	attemptRepo *repository.AttemptRepository
	aggregator  *AggregatorService
	scheduler   *SchedulerService
	presenter   *PresenterService
	session     *SessionService
	store       *memSessionStore
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newTestDB(t)

	itemRepo := repository.NewItemRepository(db)
	profRepo := repository.NewProficiencyRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	aggregator := NewAggregatorService(db, itemRepo, profRepo)
	scheduler := NewSchedulerService(db, aggregator)
	presenter := NewPresenterService(itemRepo)

	cfg := &config.EngineConfig{
		TargetCount:       10,
		AttemptBudget:     15,
		FocusBias:         0.8,
		SessionTTLMinutes: 60,
	}

	store := newMemSessionStore()
	session := NewSessionService(cfg, store, itemRepo, profRepo, attemptRepo, scheduler, presenter)

	return &testEngine{
		db:          db,
		itemRepo:    itemRepo,
		profRepo:    profRepo,
		attemptRepo: attemptRepo,
		aggregator:  aggregator,
		scheduler:   scheduler,
		presenter:   presenter,
		session:     session,
		store:       store,
	}
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	cat := &model.Category{ID: model.GenerateUUID(), Name: name}
	require.NoError(t, db.Create(cat).Error)
	return cat
}

func seedItem(t *testing.T, db *gorm.DB, categoryID, title string) *model.KnowledgeItem {
	t.Helper()
	item := &model.KnowledgeItem{
		ID:         model.GenerateUUID(),
		Title:      title,
		Prompt:     fmt.Sprintf("%s 是什么？", title),
		AnswerType: model.AnswerFreeText,
		Answer:     title,
		CategoryID: categoryID,
		Difficulty: 1,
		Active:     true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedItems(t *testing.T, db *gorm.DB, categoryID string, n int) []*model.KnowledgeItem {
	t.Helper()
	items := make([]*model.KnowledgeItem, n)
	for i := 0; i < n; i++ {
		items[i] = seedItem(t, db, categoryID, fmt.Sprintf("条目%02d", i))
	}
	return items
}

func seedCollection(t *testing.T, db *gorm.DB, name string, itemIDs []string) *model.Collection {
	t.Helper()
	col := &model.Collection{ID: model.GenerateUUID(), Name: name}
	require.NoError(t, db.Create(col).Error)
	for i, itemID := range itemIDs {
		ci := &model.CollectionItem{
			ID:           model.GenerateUUID(),
			CollectionID: col.ID,
			ItemID:       itemID,
			Order:        i,
		}
		require.NoError(t, db.Create(ci).Error)
	}
	return col
}

// memSessionStore 测试用内存会话存储，JSON 深拷贝模拟 Redis 的序列化语义
type memSessionStore struct {
	data map[string][]byte
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{data: make(map[string][]byte)}
}

func (s *memSessionStore) Save(session *model.LearningSession, ttl time.Duration) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.data[session.ID] = raw
	return nil
}

func (s *memSessionStore) Get(sessionID string) (*model.LearningSession, error) {
	raw, ok := s.data[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	var session model.LearningSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *memSessionStore) Delete(sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

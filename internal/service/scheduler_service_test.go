package service

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/util"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNextReviewDateTable(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	cases := map[int]int{0: 0, 1: 1, 2: 3, 3: 7, 4: 14, 5: 30}
	for level, days := range cases {
		got := NextReviewDate(level, now)
		assert.Equal(t, today.AddDate(0, 0, days), got, "level %d", level)
	}

	// 同一个“今天”重复计算结果不变
	later := now.Add(3 * time.Hour)
	for level := model.MinLevel; level <= model.MaxLevel; level++ {
		assert.Equal(t, NextReviewDate(level, now), NextReviewDate(level, later))
	}
}

func TestRecordAttemptLevelStaysInBounds(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "边界")
	item := seedItem(t, e.db, cat.ID, "边界条目")

	rng := rand.New(rand.NewSource(42))
	prev := 0
	for i := 0; i < 300; i++ {
		correct := rng.Intn(2) == 0
		prof, err := e.scheduler.RecordAttempt(1, item.ID, "x", correct, 1000)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, prof.Level, model.MinLevel)
		assert.LessOrEqual(t, prof.Level, model.MaxLevel)

		if correct {
			assert.GreaterOrEqual(t, prof.Level, prev, "correct attempt must never decrease level")
		} else {
			assert.LessOrEqual(t, prof.Level, prev, "incorrect attempt must never increase level")
		}
		prev = prof.Level
	}
}

func TestRecordAttemptTransitions(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "转换")
	item := seedItem(t, e.db, cat.ID, "转换条目")

	// 连续答对 4 次到级别 4
	var prof *model.ItemProficiency
	var err error
	for i := 0; i < 4; i++ {
		prof, err = e.scheduler.RecordAttempt(7, item.ID, item.Title, true, 800)
		require.NoError(t, err)
	}
	require.Equal(t, 4, prof.Level)

	// 级别 4 答对 → 5，复习日期 = 今天+30 天
	prof, err = e.scheduler.RecordAttempt(7, item.ID, item.Title, true, 800)
	require.NoError(t, err)
	assert.Equal(t, 5, prof.Level)
	assert.Equal(t, NextReviewDate(5, time.Now()), prof.ReviewDate)

	// 级别 0 答错 → 仍为 0，复习日期 = 今天
	other := seedItem(t, e.db, cat.ID, "另一条目")
	prof, err = e.scheduler.RecordAttempt(7, other.ID, "错误答案", false, 800)
	require.NoError(t, err)
	assert.Equal(t, 0, prof.Level)
	assert.Equal(t, NextReviewDate(0, time.Now()), prof.ReviewDate)
}

// 惰性创建的并发冲突依赖方言错误被翻译成 gorm.ErrDuplicatedKey，
// 否则唯一键冲突会以原始驱动错误漏出而不是 ErrConflict
func TestDuplicateProficiencyRowTranslates(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "唯一键")
	item := seedItem(t, e.db, cat.ID, "唯一键条目")

	first := model.ItemProficiency{LearnerID: 1, ItemID: item.ID, Level: 1, ReviewDate: time.Now()}
	require.NoError(t, e.db.Create(&first).Error)

	dup := model.ItemProficiency{LearnerID: 1, ItemID: item.ID, Level: 2, ReviewDate: time.Now()}
	err := e.db.Create(&dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRecordAttemptUnknownItem(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.scheduler.RecordAttempt(1, "missing-item", "x", true, 100)
	assert.ErrorIs(t, err, util.ErrItemNotFound)
}

func TestRecordAttemptAppendsAuditLog(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "流水")
	item := seedItem(t, e.db, cat.ID, "流水条目")

	start := time.Now().Add(-time.Second)
	_, err := e.scheduler.RecordAttempt(3, item.ID, "答案A", true, 1200)
	require.NoError(t, err)
	_, err = e.scheduler.RecordAttempt(3, item.ID, "答案B", false, 900)
	require.NoError(t, err)

	records, err := e.attemptRepo.ListSince(3, start)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsCorrect)
	assert.False(t, records[1].IsCorrect)
	assert.Equal(t, "答案A", records[0].Answer)
	assert.Equal(t, 1200, records[0].AnswerTimeMs)
}

// 增量聚合必须与全量重算结果一致，不允许漂移
func TestIncrementalAggregateMatchesFullRecompute(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "一致性")
	items := seedItems(t, e.db, cat.ID, 5)

	itemIDs := make([]string, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}
	col := seedCollection(t, e.db, "一致性集合", itemIDs)

	const learnerID = 11
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 60; i++ {
		item := items[rng.Intn(len(items))]
		_, err := e.scheduler.RecordAttempt(learnerID, item.ID, "x", rng.Intn(2) == 0, 500)
		require.NoError(t, err)
	}

	// 写后增量值
	incremental, err := e.profRepo.GetCategory(learnerID, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, incremental)
	incrementalPct, err := e.profRepo.GetCollection(learnerID, col.ID)
	require.NoError(t, err)
	require.NotNil(t, incrementalPct)

	// 全量重算
	full, err := e.aggregator.RecomputeCategory(learnerID, cat.ID)
	require.NoError(t, err)
	fullPct, err := e.aggregator.RecomputeCollection(learnerID, col.ID)
	require.NoError(t, err)

	assert.Equal(t, full.Level, incremental.Level)
	assert.Equal(t, fullPct.LevelPct, incrementalPct.LevelPct)

	// 与纯函数对照
	profs, err := e.profRepo.MapByItems(learnerID, itemIDs)
	require.NoError(t, err)
	var levels []int
	for _, p := range profs {
		levels = append(levels, p.Level)
	}
	assert.Equal(t, CategoryLevel(len(items), levels), full.Level)
	assert.Equal(t, CollectionPct(len(items), levels), fullPct.LevelPct)
}

func TestCategoryReviewDateIsEarliestItemDate(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "复习日期")
	a := seedItem(t, e.db, cat.ID, "甲")
	b := seedItem(t, e.db, cat.ID, "乙")

	const learnerID = 21
	// 甲到级别 2（+3 天），乙到级别 1（+1 天）
	_, err := e.scheduler.RecordAttempt(learnerID, a.ID, a.Title, true, 100)
	require.NoError(t, err)
	_, err = e.scheduler.RecordAttempt(learnerID, a.ID, a.Title, true, 100)
	require.NoError(t, err)
	_, err = e.scheduler.RecordAttempt(learnerID, b.ID, b.Title, true, 100)
	require.NoError(t, err)

	catProf, err := e.profRepo.GetCategory(learnerID, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, catProf)

	bProf, err := e.profRepo.GetItem(learnerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, bProf.ReviewDate, catProf.ReviewDate)
}

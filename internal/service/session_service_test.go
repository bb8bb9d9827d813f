package service

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDsOf(items []*model.KnowledgeItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestStartSessionClampsTargetCount(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "开始")
	items := seedItems(t, e.db, cat.ID, 12)

	session, err := e.session.StartSession(1, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	assert.Equal(t, 10, session.TargetCount)
	assert.Equal(t, 15, session.AttemptBudget)
	assert.Equal(t, model.SessionActive, session.State)
	assert.Len(t, session.CandidateItemIDs, 12)

	// 候选集小于默认目标时压到候选数
	small, err := e.session.StartSession(1, StartSessionRequest{ItemIDs: itemIDsOf(items[:3])})
	require.NoError(t, err)
	assert.Equal(t, 3, small.TargetCount)
}

func TestStartSessionEmptyCandidates(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "空分类")

	_, err := e.session.StartSession(1, StartSessionRequest{CategoryID: cat.ID})
	assert.ErrorIs(t, err, util.ErrEmptyCandidateSet)
}

func TestStartSessionUnknownCategory(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.session.StartSession(1, StartSessionRequest{CategoryID: "missing"})
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)
}

func TestSessionBudgetExhaustion(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "额度")
	items := seedItems(t, e.db, cat.ID, 12)

	const learnerID = 2
	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	// 全部答错把额度耗尽，级别停在 0，永远不会因掌握而终止
	for i := 0; i < session.AttemptBudget; i++ {
		next, err := e.session.NextItem(learnerID, session.ID)
		require.NoError(t, err)
		require.False(t, next.Terminated, "attempt %d", i)
		require.NotNil(t, next.Item)

		result, err := e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
			ItemID: next.Item.ItemID,
			Answer: "错误答案",
		})
		require.NoError(t, err)
		assert.False(t, result.IsCorrect)

		// 不变式：计数不超额度，已完成集是候选集子集
		stored, err := e.store.Get(session.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, stored.AttemptCounter, stored.AttemptBudget)
		for _, id := range stored.CompletedItemIDs {
			assert.True(t, stored.IsCandidate(id))
		}
	}

	next, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	assert.True(t, next.Terminated)
	assert.Equal(t, model.TerminationBudgetExhausted, next.Reason)

	// 终止后再提交被拒绝
	_, err = e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
		ItemID: items[0].ID,
		Answer: "x",
	})
	assert.ErrorIs(t, err, util.ErrSessionTerminated)

	// 终止后重复取题回显同一原因
	again, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	assert.True(t, again.Terminated)
	assert.Equal(t, model.TerminationBudgetExhausted, again.Reason)
}

func TestSessionTerminatesWhenAllMastered(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "掌握")
	items := seedItems(t, e.db, cat.ID, 2)

	const learnerID = 3
	for _, item := range items {
		for i := 0; i < model.MaxLevel; i++ {
			_, err := e.scheduler.RecordAttempt(learnerID, item.ID, item.Title, true, 100)
			require.NoError(t, err)
		}
	}

	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	next, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	assert.True(t, next.Terminated)
	assert.Equal(t, model.TerminationMastered, next.Reason)
}

func TestSubmitAttemptRejectsForeignItem(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "越界")
	items := seedItems(t, e.db, cat.ID, 2)
	outsider := seedItem(t, e.db, cat.ID, "会话外条目")

	const learnerID = 4
	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	_, err = e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
		ItemID: outsider.ID,
		Answer: outsider.Title,
	})
	assert.ErrorIs(t, err, util.ErrItemNotInSession)
}

func TestSessionOwnership(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "归属")
	items := seedItems(t, e.db, cat.ID, 2)

	session, err := e.session.StartSession(5, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	_, err = e.session.NextItem(6, session.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = e.session.Summarize(6, session.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSummarizeCountsAndDestroysSession(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "总结")
	items := seedItems(t, e.db, cat.ID, 3)

	const learnerID = 8
	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	// 两对一错
	titles := make(map[string]string, len(items))
	for _, it := range items {
		titles[it.ID] = it.Title
	}
	answers := []bool{true, true, false}
	for i := 0; i < 3; i++ {
		next, err := e.session.NextItem(learnerID, session.ID)
		require.NoError(t, err)
		require.NotNil(t, next.Item)

		answer := "错误答案"
		if answers[i] {
			answer = titles[next.Item.ItemID]
		}
		_, err = e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
			ItemID: next.Item.ItemID,
			Answer: answer,
		})
		require.NoError(t, err)
	}

	summary, err := e.session.Summarize(learnerID, session.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalAttempts)
	assert.Equal(t, 2, summary.CorrectCount)
	assert.Equal(t, 1, summary.IncorrectCount)
	assert.EqualValues(t, 3, summary.LifetimeAttempts)
	assert.NotEmpty(t, summary.Items)
	for _, entry := range summary.Items {
		assert.NotEmpty(t, entry.Title)
	}

	// 总结销毁会话，再取即不存在
	_, err = e.session.NextItem(learnerID, session.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestChoiceModePresentsFourOptions(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "呈现")
	items := seedItems(t, e.db, cat.ID, 6)

	const learnerID = 10
	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: itemIDsOf(items)})
	require.NoError(t, err)

	// 零级条目一律走再认模式，四个选项
	next, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Item)
	assert.Equal(t, ModeChoice, next.Item.Mode)
	assert.Len(t, next.Item.Options, 4)

	// 正确下标只留在服务端会话里
	stored, err := e.store.Get(session.ID)
	require.NoError(t, err)
	correct := canonicalAnswerText(mustItem(t, items, next.Item.ItemID))
	assert.Equal(t, correct, next.Item.Options[stored.CurrentCorrectIndex])
}

// 遗留内容的 Answer 字段可能只是展示文本：它被当作正确选项下发后，
// 选中它必须判对，哪怕逐字段比较命不中
func TestChoiceModeAcceptsPresentedCorrectOption(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "遗留")

	item := &model.KnowledgeItem{
		ID:              model.GenerateUUID(),
		Title:           "二氧化碳",
		Prompt:          "碳完全燃烧的产物是什么？",
		AnswerType:      model.AnswerFreeText,
		Answer:          "展示用讲解文本，与标题和答案变体都不一致",
		AcceptedAnswers: "CO2",
		CategoryID:      cat.ID,
		Difficulty:      1,
		Active:          true,
	}
	require.NoError(t, e.db.Create(item).Error)

	const learnerID = 12
	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: []string{item.ID}})
	require.NoError(t, err)

	next, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Item)
	require.Equal(t, ModeChoice, next.Item.Mode)

	stored, err := e.store.Get(session.ID)
	require.NoError(t, err)
	correctOption := stored.CurrentOptions[stored.CurrentCorrectIndex]
	assert.Equal(t, item.Answer, correctOption)

	result, err := e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
		ItemID: item.ID,
		Answer: correctOption,
	})
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 1, result.Level)

	// 打字作答的判定不受影响：答案变体仍然判对
	next, err = e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Item)
	result, err = e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
		ItemID: item.ID,
		Answer: "co2",
	})
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
}

// 回忆模式不下发选项，提交展示文本不能蹭对
func TestRecallModeIgnoresStaleOptions(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "回忆")
	item := seedItem(t, e.db, cat.ID, "回忆条目")

	const learnerID = 13
	for i := 0; i < 3; i++ {
		_, err := e.scheduler.RecordAttempt(learnerID, item.ID, item.Title, true, 100)
		require.NoError(t, err)
	}

	session, err := e.session.StartSession(learnerID, StartSessionRequest{ItemIDs: []string{item.ID}})
	require.NoError(t, err)

	next, err := e.session.NextItem(learnerID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Item)
	require.Equal(t, ModeRecall, next.Item.Mode)
	assert.Empty(t, next.Item.Options)

	stored, err := e.store.Get(session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CurrentOptions)

	result, err := e.session.SubmitAttempt(learnerID, session.ID, SubmitAttemptRequest{
		ItemID: item.ID,
		Answer: "随便写的错误答案",
	})
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
}

func mustItem(t *testing.T, items []*model.KnowledgeItem, id string) *model.KnowledgeItem {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not seeded", id)
	return nil
}

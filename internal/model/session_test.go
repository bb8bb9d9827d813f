package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkCompleted(t *testing.T) {
	s := &LearningSession{
		CandidateItemIDs: []string{"a", "b", "c"},
	}

	s.MarkCompleted("a")
	s.MarkCompleted("a") // 幂等
	s.MarkCompleted("z") // 非候选条目被忽略

	assert.Equal(t, []string{"a"}, s.CompletedItemIDs)
	assert.True(t, s.IsCompleted("a"))
	assert.False(t, s.IsCompleted("z"))

	// 已完成集合始终是候选集的子集
	for _, id := range s.CompletedItemIDs {
		assert.True(t, s.IsCandidate(id))
	}

	assert.Equal(t, []string{"b", "c"}, s.UnfinishedItemIDs())

	s.MarkCompleted("b")
	s.MarkCompleted("c")
	assert.Empty(t, s.UnfinishedItemIDs())
}

func TestCurrentCorrectOption(t *testing.T) {
	s := &LearningSession{
		CurrentItemID:       "a",
		CurrentOptions:      []string{"甲", "乙", "丙", "丁"},
		CurrentCorrectIndex: 2,
	}

	assert.Equal(t, "丙", s.CurrentCorrectOption("a"))

	// 条目不符不回正确项
	assert.Empty(t, s.CurrentCorrectOption("b"))

	// 回忆模式（未下发选项）返回空串
	s.CurrentOptions = nil
	assert.Empty(t, s.CurrentCorrectOption("a"))

	// 下标越界按无选项处理
	s.CurrentOptions = []string{"甲"}
	s.CurrentCorrectIndex = 5
	assert.Empty(t, s.CurrentCorrectOption("a"))
}

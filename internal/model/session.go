package model

import "time"

type SessionState string

const (
	SessionActive     SessionState = "active"
	SessionTerminated SessionState = "terminated"
)

// 会话终止原因
const (
	TerminationBudgetExhausted = "budget_exhausted"
	TerminationMastered        = "mastered"
)

// LearningSession 一次有界学习会话。不落库：JSON 序列化后放入 Redis，
// 以自身 ID 在调用之间显式传递；被放弃的会话靠 TTL 过期回收，
// 不会影响已持久化的掌握度数据。
type LearningSession struct {
	ID               string       `json:"id"`
	LearnerID        uint         `json:"learnerId"`
	CandidateItemIDs []string     `json:"candidateItemIds"`
	TargetCount      int          `json:"targetCount"`
	AttemptBudget    int          `json:"attemptBudget"`
	AttemptCounter   int          `json:"attemptCounter"`
	CompletedItemIDs []string     `json:"completedItemIds"`
	CurrentItemID    string       `json:"currentItemId"`
	// 选择模式下发的选项与乱序后正确项的下标。判题时以呈现过的
	// 正确选项为准：占位项或 Answer 字段作为正确项展示时，
	// 逐字段比较会把选中正确项误判为错
	CurrentOptions      []string     `json:"currentOptions,omitempty"`
	CurrentCorrectIndex int          `json:"currentCorrectIndex"`
	State               SessionState `json:"state"`
	TerminationReason   string       `json:"terminationReason,omitempty"`
	StartedAt           time.Time    `json:"startedAt"`
}

func (s *LearningSession) IsActive() bool {
	return s.State == SessionActive
}

func (s *LearningSession) IsCandidate(itemID string) bool {
	for _, id := range s.CandidateItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

func (s *LearningSession) IsCompleted(itemID string) bool {
	for _, id := range s.CompletedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// MarkCompleted 幂等地把条目加入已完成集合；非候选条目直接忽略
func (s *LearningSession) MarkCompleted(itemID string) {
	if !s.IsCandidate(itemID) || s.IsCompleted(itemID) {
		return
	}
	s.CompletedItemIDs = append(s.CompletedItemIDs, itemID)
}

// CurrentCorrectOption 本轮为该条目下发的正确选项文本；
// 条目不符或未以选择模式呈现时返回空串
func (s *LearningSession) CurrentCorrectOption(itemID string) string {
	if s.CurrentItemID != itemID || len(s.CurrentOptions) == 0 {
		return ""
	}
	if s.CurrentCorrectIndex < 0 || s.CurrentCorrectIndex >= len(s.CurrentOptions) {
		return ""
	}
	return s.CurrentOptions[s.CurrentCorrectIndex]
}

// UnfinishedItemIDs 候选集减去已完成集
func (s *LearningSession) UnfinishedItemIDs() []string {
	done := make(map[string]bool, len(s.CompletedItemIDs))
	for _, id := range s.CompletedItemIDs {
		done[id] = true
	}
	var out []string
	for _, id := range s.CandidateItemIDs {
		if !done[id] {
			out = append(out, id)
		}
	}
	return out
}

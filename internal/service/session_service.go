package service

import (
	"basebuilder_backend/internal/config"
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/repository"
	"basebuilder_backend/internal/util"
	"basebuilder_backend/pkg/monitoring"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// SessionStore 会话的外部键值存储（Redis 实现带 TTL）
type SessionStore interface {
	Save(session *model.LearningSession, ttl time.Duration) error
	Get(sessionID string) (*model.LearningSession, error)
	Delete(sessionID string) error
}

// SessionService 有界学习会话的状态机：Active → Terminated。
// 会话只存在于外部缓存中，每次作答的存储效果独立持久化，
// 会话被放弃不会破坏任何掌握度数据。
type SessionService struct {
	cfg         *config.EngineConfig
	sessions    SessionStore
	itemRepo    *repository.ItemRepository
	profRepo    *repository.ProficiencyRepository
	attemptRepo *repository.AttemptRepository
	scheduler   *SchedulerService
	presenter   *PresenterService
}

func NewSessionService(
	cfg *config.EngineConfig,
	sessions SessionStore,
	itemRepo *repository.ItemRepository,
	profRepo *repository.ProficiencyRepository,
	attemptRepo *repository.AttemptRepository,
	scheduler *SchedulerService,
	presenter *PresenterService,
) *SessionService {
	return &SessionService{
		cfg:         cfg,
		sessions:    sessions,
		itemRepo:    itemRepo,
		profRepo:    profRepo,
		attemptRepo: attemptRepo,
		scheduler:   scheduler,
		presenter:   presenter,
	}
}

// StartSessionRequest 候选集来源由调用方决定：显式条目 > 分类 > 集合 >
// 到期复习 > 最弱条目 > 全量目录。引擎信任已授权过滤的候选集。
type StartSessionRequest struct {
	ItemIDs       []string `json:"itemIds"`
	CategoryID    string   `json:"categoryId"`
	CollectionID  string   `json:"collectionId"`
	TargetCount   int      `json:"targetCount"`
	AttemptBudget int      `json:"attemptBudget"`
}

func (s *SessionService) StartSession(learnerID uint, req StartSessionRequest) (*model.LearningSession, error) {
	candidates, err := s.resolveCandidates(learnerID, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, util.ErrEmptyCandidateSet
	}

	targetCount := req.TargetCount
	if targetCount <= 0 {
		targetCount = s.cfg.TargetCount
	}
	if targetCount > len(candidates) {
		targetCount = len(candidates)
	}

	budget := req.AttemptBudget
	if budget <= 0 {
		budget = s.cfg.AttemptBudget
	}

	session := &model.LearningSession{
		ID:               uuid.New().String(),
		LearnerID:        learnerID,
		CandidateItemIDs: candidates,
		TargetCount:      targetCount,
		AttemptBudget:    budget,
		AttemptCounter:   0,
		State:            model.SessionActive,
		StartedAt:        time.Now(),
	}

	if err := s.sessions.Save(session, s.cfg.SessionTTL()); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) resolveCandidates(learnerID uint, req StartSessionRequest) ([]string, error) {
	if len(req.ItemIDs) > 0 {
		return req.ItemIDs, nil
	}
	if req.CategoryID != "" {
		if _, err := s.itemRepo.GetCategory(req.CategoryID); err != nil {
			return nil, err
		}
		return s.itemRepo.ListActiveIDsByCategory(req.CategoryID)
	}
	if req.CollectionID != "" {
		if _, err := s.itemRepo.GetCollection(req.CollectionID); err != nil {
			return nil, err
		}
		return s.itemRepo.ListActiveIDsByCollection(req.CollectionID)
	}

	// 无显式过滤：先取到期待复习的条目
	due, err := s.profRepo.ListDueItemIDs(learnerID, time.Now())
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		return due, nil
	}

	// 回退到掌握度最低的条目
	weakest, err := s.profRepo.ListLowestMasteryItemIDs(learnerID, s.cfg.TargetCount)
	if err != nil {
		return nil, err
	}
	if len(weakest) > 0 {
		return weakest, nil
	}

	// 无任何历史：全量目录
	return s.itemRepo.ListActiveIDs()
}

// PresentedItem 下一道要呈现的题目
type PresentedItem struct {
	ItemID     string           `json:"itemId"`
	Prompt     string           `json:"prompt"`
	AnswerType model.AnswerType `json:"answerType"`
	Difficulty int              `json:"difficulty"`
	Mode       PresentationMode `json:"mode"`
	Options    []string         `json:"options,omitempty"`
}

type NextItemResult struct {
	Terminated bool           `json:"terminated"`
	Reason     string         `json:"reason,omitempty"`
	Item       *PresentedItem `json:"item,omitempty"`
}

func (s *SessionService) NextItem(learnerID uint, sessionID string) (*NextItemResult, error) {
	session, err := s.ownedSession(learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return &NextItemResult{Terminated: true, Reason: session.TerminationReason}, nil
	}

	if session.AttemptCounter >= session.AttemptBudget {
		return s.terminate(session, model.TerminationBudgetExhausted)
	}

	levels, err := s.candidateLevels(session)
	if err != nil {
		return nil, err
	}

	if allMastered(session.CandidateItemIDs, levels) {
		return s.terminate(session, model.TerminationMastered)
	}

	unfinished := session.UnfinishedItemIDs()
	if len(unfinished) == 0 {
		// 一轮做完但额度未用尽：整个候选集重新视为未完成，优先未掌握条目
		session.CompletedItemIDs = nil
		unfinished = notYetMastered(session.CandidateItemIDs, levels)
		if len(unfinished) == 0 {
			unfinished = session.CandidateItemIDs
		}
	}

	itemID := s.selectItem(unfinished, levels)
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}

	presented := &PresentedItem{
		ItemID:     item.ID,
		Prompt:     item.Prompt,
		AnswerType: item.AnswerType,
		Difficulty: item.Difficulty,
		Mode:       s.presenter.Mode(levels[itemID]),
	}

	session.CurrentItemID = itemID
	session.CurrentOptions = nil
	session.CurrentCorrectIndex = 0

	if presented.Mode == ModeChoice {
		choices, err := s.presenter.BuildChoices(item)
		if err != nil {
			return nil, err
		}
		presented.Options = choices.Options
		session.CurrentOptions = choices.Options
		session.CurrentCorrectIndex = choices.CorrectIndex
	}

	if err := s.sessions.Save(session, s.cfg.SessionTTL()); err != nil {
		return nil, err
	}

	return &NextItemResult{Item: presented}, nil
}

// selectItem 以 FocusBias 的概率选当前级别最低的未完成条目（平级任取），
// 其余情况在未完成条目中均匀随机。策略常量可配，默认 0.8。
func (s *SessionService) selectItem(unfinished []string, levels map[string]int) string {
	if len(unfinished) == 1 {
		return unfinished[0]
	}
	if rand.Float64() < s.cfg.FocusBias {
		lowest := unfinished[0]
		for _, id := range unfinished[1:] {
			if levels[id] < levels[lowest] {
				lowest = id
			}
		}
		return lowest
	}
	return unfinished[rand.Intn(len(unfinished))]
}

func (s *SessionService) candidateLevels(session *model.LearningSession) (map[string]int, error) {
	rows, err := s.profRepo.MapByItems(session.LearnerID, session.CandidateItemIDs)
	if err != nil {
		return nil, err
	}
	levels := make(map[string]int, len(session.CandidateItemIDs))
	for _, id := range session.CandidateItemIDs {
		if row, ok := rows[id]; ok {
			levels[id] = row.Level
		} else {
			levels[id] = 0
		}
	}
	return levels, nil
}

func allMastered(candidates []string, levels map[string]int) bool {
	for _, id := range candidates {
		if levels[id] < model.MaxLevel {
			return false
		}
	}
	return len(candidates) > 0
}

func notYetMastered(candidates []string, levels map[string]int) []string {
	var out []string
	for _, id := range candidates {
		if levels[id] < model.MaxLevel {
			out = append(out, id)
		}
	}
	return out
}

func (s *SessionService) terminate(session *model.LearningSession, reason string) (*NextItemResult, error) {
	session.State = model.SessionTerminated
	session.TerminationReason = reason
	if err := s.sessions.Save(session, s.cfg.SessionTTL()); err != nil {
		return nil, err
	}
	monitoring.SessionTerminations.WithLabelValues(reason).Inc()
	return &NextItemResult{Terminated: true, Reason: reason}, nil
}

type SubmitAttemptRequest struct {
	ItemID       string `json:"itemId" binding:"required"`
	Answer       string `json:"answer"`
	AnswerTimeMs int    `json:"answerTimeMs"`
}

type AttemptResult struct {
	IsCorrect      bool      `json:"isCorrect"`
	CorrectAnswer  string    `json:"correctAnswer"`
	Explanation    string    `json:"explanation,omitempty"`
	Level          int       `json:"level"`
	NextReviewDate time.Time `json:"nextReviewDate"`
	Continue       bool      `json:"continue"`
}

// SubmitAttempt 判题并持久化。只有落库成功才推进会话计数和已完成集合；
// 失败时会话保持原状，调用方可以重试。
func (s *SessionService) SubmitAttempt(learnerID uint, sessionID string, req SubmitAttemptRequest) (*AttemptResult, error) {
	session, err := s.ownedSession(learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() || session.AttemptCounter >= session.AttemptBudget {
		return nil, util.ErrSessionTerminated
	}
	if !session.IsCandidate(req.ItemID) {
		return nil, util.ErrItemNotInSession
	}

	item, err := s.itemRepo.GetByID(req.ItemID)
	if err != nil {
		return nil, err
	}

	isCorrect, err := s.presenter.CheckAnswer(item, req.Answer)
	if err != nil {
		return nil, err
	}
	// 选择模式下选中呈现过的正确选项必须算对，即使该选项文本
	// （如 Answer 字段的展示文本）不在逐字段比较的命中范围内
	if !isCorrect {
		if correct := session.CurrentCorrectOption(req.ItemID); correct != "" {
			isCorrect = normalize(req.Answer) == normalize(correct)
		}
	}

	prof, err := s.scheduler.RecordAttempt(learnerID, req.ItemID, req.Answer, isCorrect, req.AnswerTimeMs)
	if err != nil {
		return nil, err
	}

	session.AttemptCounter++
	session.MarkCompleted(req.ItemID)
	session.CurrentItemID = ""
	session.CurrentOptions = nil
	if err := s.sessions.Save(session, s.cfg.SessionTTL()); err != nil {
		return nil, err
	}

	return &AttemptResult{
		IsCorrect:      isCorrect,
		CorrectAnswer:  canonicalAnswerText(item),
		Explanation:    item.Explanation,
		Level:          prof.Level,
		NextReviewDate: prof.ReviewDate,
		Continue:       session.AttemptCounter < session.AttemptBudget,
	}, nil
}

type ItemSummary struct {
	ItemID     string    `json:"itemId"`
	Title      string    `json:"title"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	Level      int       `json:"level"`
	ReviewDate time.Time `json:"reviewDate"`
}

type SessionSummary struct {
	SessionID      string        `json:"sessionId"`
	StartedAt      time.Time     `json:"startedAt"`
	TotalAttempts  int           `json:"totalAttempts"`
	CorrectCount   int           `json:"correctCount"`
	IncorrectCount int           `json:"incorrectCount"`
	// 该学习者的累计作答总数（跨会话）
	LifetimeAttempts int64         `json:"lifetimeAttempts"`
	Items            []ItemSummary `json:"items"`
}

// Summarize 汇总会话期间的作答流水并销毁会话
func (s *SessionService) Summarize(learnerID uint, sessionID string) (*SessionSummary, error) {
	session, err := s.ownedSession(learnerID, sessionID)
	if err != nil {
		return nil, err
	}

	records, err := s.attemptRepo.ListSince(learnerID, session.StartedAt)
	if err != nil {
		return nil, err
	}

	lifetime, err := s.attemptRepo.CountByLearner(learnerID)
	if err != nil {
		return nil, err
	}

	candidate := make(map[string]bool, len(session.CandidateItemIDs))
	for _, id := range session.CandidateItemIDs {
		candidate[id] = true
	}

	summary := &SessionSummary{
		SessionID:        session.ID,
		StartedAt:        session.StartedAt,
		LifetimeAttempts: lifetime,
	}

	perItem := make(map[string]*ItemSummary)
	var order []string
	for _, rec := range records {
		if !candidate[rec.ItemID] {
			continue
		}
		summary.TotalAttempts++
		entry, ok := perItem[rec.ItemID]
		if !ok {
			entry = &ItemSummary{ItemID: rec.ItemID}
			perItem[rec.ItemID] = entry
			order = append(order, rec.ItemID)
		}
		if rec.IsCorrect {
			summary.CorrectCount++
			entry.Correct++
		} else {
			summary.IncorrectCount++
			entry.Incorrect++
		}
	}

	profs, err := s.profRepo.MapByItems(learnerID, order)
	if err != nil {
		return nil, err
	}

	for _, itemID := range order {
		entry := perItem[itemID]
		if prof, ok := profs[itemID]; ok {
			entry.Level = prof.Level
			entry.ReviewDate = prof.ReviewDate
		}
		if item, err := s.itemRepo.GetByID(itemID); err == nil {
			entry.Title = item.Title
		}
		summary.Items = append(summary.Items, *entry)
	}

	if err := s.sessions.Delete(sessionID); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *SessionService) ownedSession(learnerID uint, sessionID string) (*model.LearningSession, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.LearnerID != learnerID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

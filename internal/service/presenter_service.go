package service

import (
	"basebuilder_backend/internal/model"
	"basebuilder_backend/internal/repository"
	"basebuilder_backend/internal/util"
	"basebuilder_backend/pkg/logger"
	"basebuilder_backend/pkg/monitoring"
	"math/rand"
	"strings"

	"go.uber.org/zap"
)

type PresentationMode string

const (
	ModeChoice PresentationMode = "choice" // 再认：四选一
	ModeRecall PresentationMode = "recall" // 回忆：自由作答
)

// 选择模式的最低升级门槛：达到该级别后转为自由回忆
const recallThreshold = 3

const distractorCount = 3

// 干扰项不足时的占位选项
var placeholderOptions = []string{"以上都不是", "不确定", "其他"}

// PresenterService 决定题目的呈现方式（再认/回忆）、构建干扰项，并判题。
// 判题保留遗留内容的多字段回退比较（标题 / 答案字段 / 标记正确的选项），
// 字段之间不一致时只标记告警，不替学习者裁决哪个字段权威。
type PresenterService struct {
	itemRepo *repository.ItemRepository
}

func NewPresenterService(itemRepo *repository.ItemRepository) *PresenterService {
	return &PresenterService{itemRepo: itemRepo}
}

// Mode 低掌握度先做再认题搭脚手架，之后过渡到自由回忆
func (s *PresenterService) Mode(level int) PresentationMode {
	if level < recallThreshold {
		return ModeChoice
	}
	return ModeRecall
}

// ChoiceSet 一组乱序后的四个选项，CorrectIndex 供服务端校验，不下发给客户端
type ChoiceSet struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
}

// BuildChoices 构建 1 正确 + 3 干扰的选项集。
// 干扰项优先取同分类的启用条目，不足时跨分类补位，再不足用占位选项填满。
func (s *PresenterService) BuildChoices(item *model.KnowledgeItem) (*ChoiceSet, error) {
	correct := canonicalAnswerText(item)

	candidates, err := s.itemRepo.ListDistractorCandidates(item.CategoryID, item.ID)
	if err != nil {
		return nil, err
	}

	distractors := pickDistractorTexts(candidates, correct, distractorCount)

	if len(distractors) < distractorCount {
		others, err := s.itemRepo.ListCrossCategoryDistractors(item.CategoryID, item.ID, 20)
		if err != nil {
			return nil, err
		}
		for _, text := range pickDistractorTexts(others, correct, distractorCount-len(distractors)) {
			distractors = append(distractors, text)
		}
	}

	for i := 0; len(distractors) < distractorCount && i < len(placeholderOptions); i++ {
		distractors = append(distractors, placeholderOptions[i])
	}

	options := append([]string{correct}, distractors...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return &ChoiceSet{Options: options, CorrectIndex: correctIndex}, nil
}

// pickDistractorTexts 伪随机无放回抽取，跳过与正确答案同文的候选
func pickDistractorTexts(candidates []model.KnowledgeItem, correct string, n int) []string {
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var texts []string
	seen := map[string]bool{normalize(correct): true}
	for _, c := range candidates {
		if len(texts) >= n {
			break
		}
		text := canonicalAnswerText(&c)
		if text == "" || seen[normalize(text)] {
			continue
		}
		seen[normalize(text)] = true
		texts = append(texts, text)
	}
	return texts
}

// CheckAnswer 按作答类型判题。多字段回退是为了兼容字段不一致的遗留内容。
func (s *PresenterService) CheckAnswer(item *model.KnowledgeItem, submitted string) (bool, error) {
	if strings.TrimSpace(submitted) == "" {
		return false, util.ErrEmptyAnswer
	}

	ans := normalize(submitted)

	switch item.AnswerType {
	case model.AnswerMultipleChoice:
		s.flagFieldMismatch(item)
		if ans == normalize(item.Title) || (item.Answer != "" && ans == normalize(item.Answer)) {
			return true, nil
		}
		if choice := item.CorrectChoice(); choice != nil && ans == normalize(choice.Text) {
			return true, nil
		}
		return false, nil

	case model.AnswerTrueFalse:
		return ans == normalize(item.Answer), nil

	case model.AnswerFreeText:
		if ans == normalize(item.Title) {
			return true, nil
		}
		for _, accepted := range item.AcceptedAnswerList() {
			if ans == normalize(accepted) {
				return true, nil
			}
		}
		return false, nil
	}

	return false, nil
}

// flagFieldMismatch 答案字段与标记正确的选项文本不一致时记录，供数据清洗
func (s *PresenterService) flagFieldMismatch(item *model.KnowledgeItem) {
	choice := item.CorrectChoice()
	if choice == nil || item.Answer == "" {
		return
	}
	if normalize(item.Answer) != normalize(choice.Text) {
		monitoring.AnswerFieldMismatch.Inc()
		logger.Log.Warn("answer fields disagree, item needs data cleanup",
			zap.String("itemId", item.ID),
			zap.String("answerField", item.Answer),
			zap.String("correctChoice", choice.Text),
		)
	}
}

// canonicalAnswerText 展示用的正确答案文本：优先答案字段，缺失时退回标题
func canonicalAnswerText(item *model.KnowledgeItem) string {
	if strings.TrimSpace(item.Answer) != "" {
		return item.Answer
	}
	if choice := item.CorrectChoice(); choice != nil {
		return choice.Text
	}
	return item.Title
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

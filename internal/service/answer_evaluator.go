package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/util"
	"strings"

	"github.com/go-playground/validator/v10"
)

var answerValidate = validator.New()

// Evaluation 单题判分结果
type Evaluation struct {
	IsCorrect    bool
	PointsEarned int
}

// ValidateAnswer 按题型校验提交格式，不判断正误
func ValidateAnswer(q *model.Question, answer string) error {
	trimmed := strings.TrimSpace(answer)

	switch q.QuestionType {
	case model.MultipleChoice, model.FillInBlank, model.ShortAnswer:
		if err := answerValidate.Var(trimmed, "required"); err != nil {
			return fmt.Errorf("%w: answer is required for %s questions", util.ErrInvalidAnswer, q.QuestionType)
		}
	case model.TrueFalse:
		if err := answerValidate.Var(strings.ToLower(trimmed), "required,oneof=true false"); err != nil {
			return fmt.Errorf("%w: answer must be 'true' or 'false'", util.ErrInvalidAnswer)
		}
	case model.Matching:
		if _, err := parsePairs(trimmed); err != nil {
			return fmt.Errorf("%w: matching answer must be a JSON object", util.ErrInvalidAnswer)
		}
	default:
		return fmt.Errorf("%w: unsupported question type %q", util.ErrInvalidAnswer, q.QuestionType)
	}
	return nil
}

// EvaluateAnswer 判定答案正误，不做部分得分
//
// 标准答案损坏时返回错误，而不是按答错处理。
func EvaluateAnswer(q *model.Question, answer string) (Evaluation, error) {
	expected, err := q.ParsedCorrectAnswer()
	if err != nil {
		return Evaluation{}, fmt.Errorf("question %d: %w", q.ID, err)
	}

	correct, err := matches(expected, answer)
	if err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{IsCorrect: correct}
	if correct {
		eval.PointsEarned = q.Points
	}
	return eval, nil
}

func matches(expected model.CorrectAnswer, answer string) (bool, error) {
	given := normalize(answer)

	switch want := expected.(type) {
	case model.ScalarAnswer:
		return given == normalize(want.Value), nil
	case model.AlternativesAnswer:
		for _, alt := range want.Alternatives {
			if given == normalize(alt) {
				return true, nil
			}
		}
		return false, nil
	case model.ReferenceAnswer:
		// 宽松匹配：互为子串即算正确
		ref := normalize(want.Reference)
		return strings.Contains(ref, given) || strings.Contains(given, ref), nil
	case model.PairsAnswer:
		pairs, err := parsePairs(answer)
		if err != nil {
			return false, fmt.Errorf("%w: matching answer must be a JSON object", util.ErrInvalidAnswer)
		}
		if len(pairs) != len(want.Pairs) {
			return false, nil
		}
		submitted := make(map[string]string, len(pairs))
		for k, v := range pairs {
			submitted[normalize(k)] = normalize(v)
		}
		for k, v := range want.Pairs {
			got, ok := submitted[normalize(k)]
			if !ok || got != normalize(v) {
				return false, nil
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: unsupported answer kind %T", model.ErrMalformedCorrectAnswer, expected)
}

func parsePairs(answer string) (map[string]string, error) {
	var pairs map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &pairs); err != nil {
		return nil, err
	}
	if pairs == nil {
		return nil, errors.New("null matching answer")
	}
	return pairs, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

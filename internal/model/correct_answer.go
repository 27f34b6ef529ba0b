package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedCorrectAnswer = errors.New("malformed correct answer")

// CorrectAnswer 标准答案，具体形态由题型决定
type CorrectAnswer interface {
	Kind() QuestionType
}

// ScalarAnswer 单选 / 判断
type ScalarAnswer struct {
	Value string
	Type  QuestionType
}

// AlternativesAnswer 填空题，命中任一备选即正确
type AlternativesAnswer struct {
	Alternatives []string
}

// ReferenceAnswer 简答题参考答案
type ReferenceAnswer struct {
	Reference string
}

// PairsAnswer 连线题 key -> value
type PairsAnswer struct {
	Pairs map[string]string
}

func (a ScalarAnswer) Kind() QuestionType     { return a.Type }
func (AlternativesAnswer) Kind() QuestionType { return FillInBlank }
func (ReferenceAnswer) Kind() QuestionType    { return ShortAnswer }
func (PairsAnswer) Kind() QuestionType        { return Matching }

// ParseCorrectAnswer 按题型解析 JSON 形式的标准答案
func ParseCorrectAnswer(qt QuestionType, raw []byte) (CorrectAnswer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedCorrectAnswer)
	}

	switch qt {
	case MultipleChoice:
		s, err := scalarString(raw)
		if err != nil {
			return nil, err
		}
		if isBlank(s) {
			return nil, fmt.Errorf("%w: blank choice", ErrMalformedCorrectAnswer)
		}
		return ScalarAnswer{Value: s, Type: qt}, nil
	case TrueFalse:
		s, err := scalarString(raw)
		if err != nil {
			return nil, err
		}
		v := strings.ToLower(strings.TrimSpace(s))
		if v != "true" && v != "false" {
			return nil, fmt.Errorf("%w: true/false answer %q", ErrMalformedCorrectAnswer, s)
		}
		return ScalarAnswer{Value: v, Type: qt}, nil
	case FillInBlank:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			if len(list) == 0 {
				return nil, fmt.Errorf("%w: no alternatives", ErrMalformedCorrectAnswer)
			}
			for _, alt := range list {
				if isBlank(alt) {
					return nil, fmt.Errorf("%w: blank alternative", ErrMalformedCorrectAnswer)
				}
			}
			return AlternativesAnswer{Alternatives: list}, nil
		}
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: fill-in-blank expects string or list", ErrMalformedCorrectAnswer)
		}
		if isBlank(single) {
			return nil, fmt.Errorf("%w: blank alternative", ErrMalformedCorrectAnswer)
		}
		return AlternativesAnswer{Alternatives: []string{single}}, nil
	case ShortAnswer:
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, fmt.Errorf("%w: short answer expects string", ErrMalformedCorrectAnswer)
		}
		// 空参考答案会让子串匹配恒为真
		if isBlank(ref) {
			return nil, fmt.Errorf("%w: blank reference", ErrMalformedCorrectAnswer)
		}
		return ReferenceAnswer{Reference: ref}, nil
	case Matching:
		var pairs map[string]string
		if err := json.Unmarshal(raw, &pairs); err != nil || len(pairs) == 0 {
			return nil, fmt.Errorf("%w: matching expects non-empty object", ErrMalformedCorrectAnswer)
		}
		for k, v := range pairs {
			if isBlank(k) || isBlank(v) {
				return nil, fmt.Errorf("%w: blank matching pair", ErrMalformedCorrectAnswer)
			}
		}
		return PairsAnswer{Pairs: pairs}, nil
	}
	return nil, fmt.Errorf("%w: unknown question type %q", ErrMalformedCorrectAnswer, qt)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// scalarString 兼容历史数据中以 JSON 布尔值存储的判断题答案
func scalarString(raw []byte) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("%w: expected scalar", ErrMalformedCorrectAnswer)
}

// EncodeCorrectAnswer 将作者提交的任意 JSON 值规范化后落库，顺带校验形态
func EncodeCorrectAnswer(qt QuestionType, v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCorrectAnswer, err)
	}
	if _, err := ParseCorrectAnswer(qt, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

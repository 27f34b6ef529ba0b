package util

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")

	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptLimitExceeded = errors.New("maximum attempts reached for this quiz")
	ErrAttemptNotCompleted  = errors.New("attempt is not completed")
	ErrSessionAlreadyActive = errors.New("an active session already exists for this quiz")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionInactive      = errors.New("session is not active")
	ErrNotCurrentQuestion   = errors.New("question is not the current question of the session")
	ErrInvalidAnswer        = errors.New("invalid answer")
	ErrInvalidQuiz          = errors.New("invalid quiz definition")
	ErrInvalidInput         = errors.New("invalid input")
)

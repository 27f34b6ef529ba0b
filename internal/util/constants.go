package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// 改进建议文案，成绩低于阈值时写入测验结果
var ImprovementSuggestions = []string{
	"Review the lesson content before retaking the quiz",
	"Focus on areas where you scored lower",
}

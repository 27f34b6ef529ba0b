package model

import "gorm.io/datatypes"

type NotificationType string

const (
	NotificationQuizResult NotificationType = "QUIZ_RESULT"
)

type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityLow    NotificationPriority = "LOW"
)

type Notification struct {
	BaseModel

	UserID           uint                 `gorm:"index;not null" json:"userId"`
	Title            string               `gorm:"size:200" json:"title"`
	Message          string               `gorm:"type:text" json:"message"`
	NotificationType NotificationType     `gorm:"size:32;index" json:"notificationType"`
	Priority         NotificationPriority `gorm:"size:16" json:"priority"`
	Data             datatypes.JSONMap    `json:"data"`
	IsRead           bool                 `json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}

package repository

import (
	"learning_cloud_backend/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: tx}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.DB.Create(n).Error
}

func (r *NotificationRepository) FindByUser(userID uint) ([]model.Notification, error) {
	var list []model.Notification
	err := r.DB.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error
	return list, err
}

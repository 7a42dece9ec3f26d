package service

import (
	"casetrack/internal/model"

	"github.com/google/uuid"
)

type NotificationService struct {
	notificationStore NotificationStore
}

func NewNotificationService(notificationStore NotificationStore) *NotificationService {
	return &NotificationService{notificationStore: notificationStore}
}

func (s *NotificationService) ListForUser(userID uuid.UUID) (*model.NotificationListResponse, error) {
	notifications, err := s.notificationStore.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	unreadCount, err := s.notificationStore.UnreadCount(userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	}, nil
}

func (s *NotificationService) MarkRead(notificationID, userID uuid.UUID) error {
	return s.notificationStore.MarkRead(notificationID, userID)
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.notificationStore.MarkAllRead(userID)
}

package service

import (
	"context"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/repository"
	"scout_crm_backend/pkg/logger"

	"go.uber.org/zap"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify persists an in-app notification. Failures are logged only so
// the triggering mutation is never rolled back over a notification.
func (s *NotificationService) Notify(ctx context.Context, userID uint, prospectID string, kind model.NotificationKind, title, message string) {
	n := &model.Notification{
		UserID:     userID,
		ProspectID: prospectID,
		Kind:       kind,
		Title:      title,
		Message:    message,
	}
	if err := s.repo.Create(n); err != nil {
		logger.Log.Error("failed to persist notification",
			zap.Uint("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func (s *NotificationService) ListForUser(userID uint, limit int) ([]model.Notification, error) {
	return s.repo.ListForUser(userID, limit)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.UnreadCount(userID)
}

func (s *NotificationService) MarkRead(userID uint, id uint) error {
	return s.repo.MarkRead(userID, id)
}

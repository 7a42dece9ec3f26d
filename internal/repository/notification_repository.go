package repository

import (
	"database/sql"

	"casetrack/internal/model"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(notification *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, case_ref, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		notification.ID,
		notification.UserID,
		notification.CaseRef,
		notification.Message,
		notification.Type,
		notification.IsRead,
		notification.CreatedAt,
	)
	return err
}

func (r *NotificationRepository) ListForUser(userID uuid.UUID) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, case_ref, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var caseRef sql.NullString
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&caseRef,
			&n.Message,
			&n.Type,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if caseRef.Valid {
			n.CaseRef = &caseRef.String
		}
		notifications = append(notifications, n)
	}

	return notifications, nil
}

func (r *NotificationRepository) UnreadCount(userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(notificationID, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, notificationID, userID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.db.Exec(query, userID)
	return err
}

// IsMessageProcessed and MarkMessageProcessed back the consumer's
// at-least-once dedupe of broker deliveries.
func (r *NotificationRepository) IsMessageProcessed(messageID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)`
	var exists bool
	err := r.db.QueryRow(query, messageID).Scan(&exists)
	return exists, err
}

func (r *NotificationRepository) MarkMessageProcessed(messageID string) error {
	query := `
		INSERT INTO processed_messages (message_id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (message_id) DO NOTHING
	`
	_, err := r.db.Exec(query, messageID)
	return err
}

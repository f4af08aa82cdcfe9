package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending outbox row
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (type, report_uuid, actor_uuid, recipients, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.Type, n.ReportUUID, n.ActorUUID, n.Recipients, n.Body, n.Status, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("type", n.Type),
			zap.String("report_uuid", n.ReportUUID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification id: %w", err)
	}
	return nil
}

// GetPending returns up to limit undelivered notifications, oldest first
func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, type, report_uuid, actor_uuid, recipients, body, status, sent_at, error_message, created_at
		FROM notifications
		WHERE status = ?
		ORDER BY id
		LIMIT ?
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		var errorMessage sql.NullString
		err := rows.Scan(
			&n.ID,
			&n.Type,
			&n.ReportUUID,
			&n.ActorUUID,
			&n.Recipients,
			&n.Body,
			&n.Status,
			&sentAt,
			&errorMessage,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		n.ErrorMessage = errorMessage.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkSent stamps a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET status = ?, sent_at = ?, error_message = '' WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.NotificationStatusSent, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := `UPDATE notifications SET status = ?, error_message = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.NotificationStatusFailed, errorMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)

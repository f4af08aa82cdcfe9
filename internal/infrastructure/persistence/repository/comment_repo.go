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

// CommentRepository implements port.CommentRepository
type CommentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB, logger *zap.Logger) port.CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	query := `
		INSERT INTO comments (uuid, report_uuid, author_uuid, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		comment.UUID, comment.ReportUUID, comment.AuthorUUID, comment.Text, comment.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create comment",
			zap.String("comment_uuid", comment.UUID),
			zap.String("report_uuid", comment.ReportUUID),
			zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByUUID retrieves a comment; (nil, nil) when it does not exist.
func (r *CommentRepository) GetByUUID(ctx context.Context, uuid string) (*entity.Comment, error) {
	query := `SELECT uuid, report_uuid, author_uuid, text, created_at FROM comments WHERE uuid = ?`

	var comment entity.Comment
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, uuid).Scan(
		&comment.UUID,
		&comment.ReportUUID,
		&comment.AuthorUUID,
		&comment.Text,
		&comment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get comment", zap.String("comment_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// GetByReportUUID returns a report's comments, oldest first
func (r *CommentRepository) GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.Comment, error) {
	query := `
		SELECT uuid, report_uuid, author_uuid, text, created_at
		FROM comments
		WHERE report_uuid = ?
		ORDER BY created_at, uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get comments", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	var comments []*entity.Comment
	for rows.Next() {
		var comment entity.Comment
		err := rows.Scan(
			&comment.UUID,
			&comment.ReportUUID,
			&comment.AuthorUUID,
			&comment.Text,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, uuid string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM comments WHERE uuid = ?`, uuid)
	if err != nil {
		r.logger.Error("Failed to delete comment", zap.String("comment_uuid", uuid), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.CommentRepository = (*CommentRepository)(nil)

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"billsnap/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	var dataJSON []byte
	if n.Data != nil {
		var err error
		dataJSON, err = json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("marshaling notification data: %w", err)
		}
	}

	query := squirrel.Insert("notifications").
		Columns("id", "user_id", "title", "body", "data", "sent_at", "read").
		Values(n.ID, n.UserID, n.Title, n.Body, dataJSON, n.SentAt, n.Read).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	query := squirrel.Select("id", "user_id", "title", "body", "data", "sent_at", "read").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("sent_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var (
			n    models.Notification
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &data, &n.SentAt, &n.Read); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkRead marks the notification as read if it belongs to the user. Returns
// false when no matching row existed.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := squirrel.Update("notifications").
		Set("read", true).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

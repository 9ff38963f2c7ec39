package repository

import (
	"context"

	"billsnap/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PushTokenRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPushTokenRepository(db *pgxpool.Pool, logger *zap.Logger) *PushTokenRepository {
	return &PushTokenRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PushTokenRepository) Create(ctx context.Context, token *models.PushToken) error {
	query := squirrel.Insert("push_tokens").
		Columns("id", "user_id", "token", "platform", "active", "created_at").
		Values(token.ID, token.UserID, token.Token, string(token.Platform), token.Active, token.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PushTokenRepository) GetByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (*models.PushToken, error) {
	query := squirrel.Select("id", "user_id", "token", "platform", "active", "created_at").
		From("push_tokens").
		Where(squirrel.Eq{"user_id": userID, "token": token}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		t        models.PushToken
		platform string
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&t.ID, &t.UserID, &t.Token, &platform, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Platform = models.PushPlatform(platform)

	return &t, nil
}

// SetActive flips a token's active flag and refreshes its platform, used when
// a device re-registers an existing token.
func (r *PushTokenRepository) SetActive(ctx context.Context, id uuid.UUID, platform models.PushPlatform, active bool) error {
	query := squirrel.Update("push_tokens").
		Set("active", active).
		Set("platform", string(platform)).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// Deactivate disables a token for the user. Returns false when no matching
// active token existed.
func (r *PushTokenRepository) Deactivate(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	query := squirrel.Update("push_tokens").
		Set("active", false).
		Where(squirrel.Eq{"user_id": userID, "token": token, "active": true}).
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

func (r *PushTokenRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.PushToken, error) {
	query := squirrel.Select("id", "user_id", "token", "platform", "active", "created_at").
		From("push_tokens").
		Where(squirrel.Eq{"user_id": userID, "active": true}).
		OrderBy("created_at DESC").
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

	var tokens []*models.PushToken
	for rows.Next() {
		var (
			t        models.PushToken
			platform string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &platform, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Platform = models.PushPlatform(platform)
		tokens = append(tokens, &t)
	}

	return tokens, rows.Err()
}

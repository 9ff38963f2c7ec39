package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"billsnap/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var receiptColumns = []string{
	"id", "user_id", "store_name", "address", "date", "category",
	"subtotal", "tax", "total", "payment_method", "items", "fuel_info",
	"raw_text", "confidence", "created_at", "updated_at",
}

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	itemsJSON, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("marshaling items: %w", err)
	}

	var fuelJSON []byte
	if receipt.FuelInfo != nil {
		fuelJSON, err = json.Marshal(receipt.FuelInfo)
		if err != nil {
			return fmt.Errorf("marshaling fuel info: %w", err)
		}
	}

	query := squirrel.Insert("receipts").
		Columns(receiptColumns...).
		Values(
			receipt.ID, receipt.UserID, receipt.StoreName, receipt.Address,
			receipt.Date, string(receipt.Category),
			amountParam(receipt.Subtotal), amountParam(receipt.Tax), amountParam(receipt.Total),
			receipt.PaymentMethod, itemsJSON, fuelJSON,
			receipt.RawText, receipt.Confidence, receipt.CreatedAt, receipt.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return scanReceipt(r.db.QueryRow(ctx, sql, args...))
}

func (r *ReceiptRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
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

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}

	return receipts, rows.Err()
}

// Update applies only the fields present in the patch. The id and user_id
// predicates together enforce ownership; a missing or foreign receipt both
// come back as pgx.ErrNoRows.
func (r *ReceiptRepository) Update(ctx context.Context, id, userID uuid.UUID, update *models.ReceiptUpdate) (*models.Receipt, error) {
	query := squirrel.Update("receipts").
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		Suffix("RETURNING " + strings.Join(receiptColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)

	if update.StoreName != nil {
		query = query.Set("store_name", *update.StoreName)
	}
	if update.Address != nil {
		query = query.Set("address", *update.Address)
	}
	if update.Date != nil {
		query = query.Set("date", *update.Date)
	}
	if update.Category != nil {
		query = query.Set("category", string(*update.Category))
	}
	if update.Subtotal != nil {
		query = query.Set("subtotal", float64(*update.Subtotal))
	}
	if update.Tax != nil {
		query = query.Set("tax", float64(*update.Tax))
	}
	if update.Total != nil {
		query = query.Set("total", float64(*update.Total))
	}
	if update.PaymentMethod != nil {
		query = query.Set("payment_method", *update.PaymentMethod)
	}
	if update.Items != nil {
		itemsJSON, err := json.Marshal(*update.Items)
		if err != nil {
			return nil, fmt.Errorf("marshaling items: %w", err)
		}
		query = query.Set("items", itemsJSON)
	}
	if update.FuelInfo != nil {
		fuelJSON, err := json.Marshal(update.FuelInfo)
		if err != nil {
			return nil, fmt.Errorf("marshaling fuel info: %w", err)
		}
		query = query.Set("fuel_info", fuelJSON)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return scanReceipt(r.db.QueryRow(ctx, sql, args...))
}

func (r *ReceiptRepository) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := squirrel.Delete("receipts").
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

// MonthlyTotals aggregates spending per calendar month, newest first.
func (r *ReceiptRepository) MonthlyTotals(ctx context.Context, userID uuid.UUID) ([]models.MonthlyTotal, error) {
	query := squirrel.Select("to_char(created_at, 'YYYY-MM') AS month", "COALESCE(SUM(total), 0) AS total").
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		Where("total IS NOT NULL").
		GroupBy("month").
		OrderBy("month DESC").
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

	var totals []models.MonthlyTotal
	for rows.Next() {
		var t models.MonthlyTotal
		if err := rows.Scan(&t.Month, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// CategoryTotals aggregates spending per category, biggest spenders first.
func (r *ReceiptRepository) CategoryTotals(ctx context.Context, userID uuid.UUID) ([]models.CategoryTotal, error) {
	query := squirrel.Select("category", "COALESCE(SUM(total), 0) AS total").
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		Where("total IS NOT NULL").
		GroupBy("category").
		OrderBy("total DESC").
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

	var totals []models.CategoryTotal
	for rows.Next() {
		var t models.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// amountParam converts the nullable money type to a plain nullable float for
// the driver.
func amountParam(a *models.Amount) any {
	if a == nil {
		return nil
	}
	return float64(*a)
}

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var (
		receipt  models.Receipt
		category string
		subtotal *float64
		tax      *float64
		total    *float64
		items    []byte
		fuelInfo []byte
	)

	err := row.Scan(
		&receipt.ID, &receipt.UserID, &receipt.StoreName, &receipt.Address,
		&receipt.Date, &category,
		&subtotal, &tax, &total,
		&receipt.PaymentMethod, &items, &fuelInfo,
		&receipt.RawText, &receipt.Confidence, &receipt.CreatedAt, &receipt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	receipt.Category = models.ReceiptCategory(category)
	receipt.Subtotal = amountFromFloat(subtotal)
	receipt.Tax = amountFromFloat(tax)
	receipt.Total = amountFromFloat(total)

	if len(items) > 0 {
		if err := json.Unmarshal(items, &receipt.Items); err != nil {
			return nil, fmt.Errorf("unmarshaling items: %w", err)
		}
	}
	if receipt.Items == nil {
		receipt.Items = []models.Item{}
	}

	if len(fuelInfo) > 0 {
		var fi models.FuelInfo
		if err := json.Unmarshal(fuelInfo, &fi); err != nil {
			return nil, fmt.Errorf("unmarshaling fuel info: %w", err)
		}
		receipt.FuelInfo = &fi
	}

	return &receipt, nil
}

func amountFromFloat(f *float64) *models.Amount {
	if f == nil {
		return nil
	}
	a := models.Amount(*f)
	return &a
}

package service

import (
	"context"
	"fmt"

	"billsnap/internal/dto"
	"billsnap/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnalyticsService struct {
	receiptRepo *repository.ReceiptRepository
	logger      *zap.Logger
}

func NewAnalyticsService(receiptRepo *repository.ReceiptRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		receiptRepo: receiptRepo,
		logger:      logger,
	}
}

// MonthlyAnalytics returns the user's spending totals grouped by YYYY-MM,
// newest month first.
func (s *AnalyticsService) MonthlyAnalytics(ctx context.Context, userID uuid.UUID) (*dto.MonthlyAnalyticsResponse, error) {
	totals, err := s.receiptRepo.MonthlyTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly analytics: %w", err)
	}

	data := make([]dto.MonthlyTotal, len(totals))
	for i, t := range totals {
		data[i] = dto.MonthlyTotal{Month: t.Month, Total: t.Total}
	}
	return &dto.MonthlyAnalyticsResponse{Data: data}, nil
}

// CategoryAnalytics returns the user's spending totals grouped by category,
// largest total first.
func (s *AnalyticsService) CategoryAnalytics(ctx context.Context, userID uuid.UUID) (*dto.CategoryAnalyticsResponse, error) {
	totals, err := s.receiptRepo.CategoryTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category analytics: %w", err)
	}

	data := make([]dto.CategoryTotal, len(totals))
	for i, t := range totals {
		data[i] = dto.CategoryTotal{Category: t.Category, Total: t.Total}
	}
	return &dto.CategoryAnalyticsResponse{Data: data}, nil
}

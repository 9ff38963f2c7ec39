package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billsnap/internal/dto"
	"billsnap/internal/models"
	"billsnap/internal/preprocess"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrInvalidCategory = errors.New("invalid category")
)

// StatusProcessed is reported instead of a confidence tier when per-upload
// scoring is disabled.
const StatusProcessed = "processed"

// ReceiptRepository is the ownership-scoped persistence boundary. Every
// lookup, update and delete takes the owning user id so the check cannot be
// skipped at a call site; an absent receipt and a foreign receipt are
// indistinguishable to callers.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Receipt, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Receipt, error)
	Update(ctx context.Context, id, userID uuid.UUID, update *models.ReceiptUpdate) (*models.Receipt, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// ReceiptNotifier delivers the "receipt processed" push after an upload.
type ReceiptNotifier interface {
	SendReceiptProcessed(ctx context.Context, userID uuid.UUID, receiptID, storeName string)
}

type ReceiptService struct {
	repo          ReceiptRepository
	extractor     Extractor
	ocr           TextExtractor
	notifier      ReceiptNotifier
	scoreOnUpload bool
	logger        *zap.Logger
}

func NewReceiptService(
	repo ReceiptRepository,
	extractor Extractor,
	ocr TextExtractor,
	notifier ReceiptNotifier,
	scoreOnUpload bool,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		repo:          repo,
		extractor:     extractor,
		ocr:           ocr,
		notifier:      notifier,
		scoreOnUpload: scoreOnUpload,
		logger:        logger,
	}
}

// UploadReceipt runs the full pipeline on raw image bytes: normalize, OCR,
// extract, score, categorize, persist. Only an undecodable image fails the
// request; extraction failures degrade to an empty record and a persistence
// failure still returns the extracted data with an empty id.
func (s *ReceiptService) UploadReceipt(ctx context.Context, userID uuid.UUID, imageBytes []byte) (*dto.UploadReceiptResponse, error) {
	normalized, err := preprocess.Normalize(imageBytes)
	if err != nil {
		return nil, err
	}

	rawText := ""
	if s.ocr != nil {
		rawText = s.ocr.ExtractText(normalized)
	}

	result := s.extractor.Extract(ctx, normalized, rawText)
	extracted := result.Receipt
	if result.Degraded {
		s.logger.Warn("Extraction degraded, storing empty receipt",
			zap.String("user_id", userID.String()),
			zap.Error(result.Cause),
		)
	}

	confidence := 0.0
	status := StatusProcessed
	if s.scoreOnUpload {
		confidence, status = CalculateConfidence(extracted, rawText)
	}

	category := resolveCategory(extracted)

	date := extracted.Date
	if date == nil || *date == "" {
		today := time.Now().Format("2006-01-02")
		date = &today
	}

	now := time.Now().UTC()
	receipt := &models.Receipt{
		ID:            uuid.New(),
		UserID:        userID,
		StoreName:     extracted.StoreName,
		Address:       extracted.Address,
		Date:          date,
		Category:      category,
		Subtotal:      extracted.Subtotal,
		Tax:           extracted.Tax,
		Total:         extracted.Total,
		PaymentMethod: extracted.PaymentMethod,
		Items:         extracted.Items,
		FuelInfo:      extracted.FuelInfo,
		RawText:       rawText,
		Confidence:    confidence,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	resp := &dto.UploadReceiptResponse{
		Confidence:         confidence,
		Status:             status,
		ExtractionDegraded: result.Degraded,
	}

	if err := s.repo.Create(ctx, receipt); err != nil {
		// Fail-soft: the user still gets the extracted data, just without
		// a stored identifier.
		s.logger.Error("Failed to persist receipt", zap.Error(err))
		resp.Receipt = toReceiptResponse(receipt)
		resp.Receipt.ID = ""
		return resp, nil
	}

	if s.notifier != nil {
		storeName := ""
		if receipt.StoreName != nil {
			storeName = *receipt.StoreName
		}
		go s.notifier.SendReceiptProcessed(context.WithoutCancel(ctx), userID, receipt.ID.String(), storeName)
	}

	resp.Receipt = toReceiptResponse(receipt)
	return resp, nil
}

// resolveCategory prefers a valid category supplied by the extractor and
// falls back to keyword classification otherwise.
func resolveCategory(extracted *models.ExtractedReceipt) models.ReceiptCategory {
	if extracted.Category != nil {
		supplied := strings.ToLower(strings.TrimSpace(*extracted.Category))
		if ValidateCategory(supplied) {
			return models.ReceiptCategory(supplied)
		}
	}
	return AssignCategory(extracted)
}

func (s *ReceiptService) GetReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*dto.ReceiptResponse, error) {
	receipt, err := s.repo.GetByID(ctx, receiptID, userID)
	if err != nil {
		return nil, ErrReceiptNotFound
	}
	resp := toReceiptResponse(receipt)
	return &resp, nil
}

func (s *ReceiptService) ListReceipts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ReceiptResponse, error) {
	receipts, err := s.repo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	responses := make([]dto.ReceiptResponse, len(receipts))
	for i, r := range receipts {
		responses[i] = toReceiptResponse(r)
	}
	return responses, nil
}

// UpdateReceipt applies a field-level patch. Only provided fields change and
// updated_at is always refreshed.
func (s *ReceiptService) UpdateReceipt(ctx context.Context, userID, receiptID uuid.UUID, req *dto.UpdateReceiptRequest) (*dto.ReceiptResponse, error) {
	update := &models.ReceiptUpdate{
		StoreName:     req.StoreName,
		Address:       req.Address,
		Date:          req.Date,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		FuelInfo:      req.FuelInfo,
	}

	receipt, err := s.repo.Update(ctx, receiptID, userID, update)
	if err != nil {
		return nil, ErrReceiptNotFound
	}
	resp := toReceiptResponse(receipt)
	return &resp, nil
}

// UpdateCategory changes only the category, validating it against the closed
// set first.
func (s *ReceiptService) UpdateCategory(ctx context.Context, userID, receiptID uuid.UUID, category string) (*dto.ReceiptResponse, error) {
	if !ValidateCategory(category) {
		return nil, ErrInvalidCategory
	}

	cat := models.ReceiptCategory(category)
	receipt, err := s.repo.Update(ctx, receiptID, userID, &models.ReceiptUpdate{Category: &cat})
	if err != nil {
		return nil, ErrReceiptNotFound
	}
	resp := toReceiptResponse(receipt)
	return &resp, nil
}

func (s *ReceiptService) DeleteReceipt(ctx context.Context, userID, receiptID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, receiptID, userID)
	if err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	if !deleted {
		return ErrReceiptNotFound
	}
	return nil
}

func toReceiptResponse(r *models.Receipt) dto.ReceiptResponse {
	items := r.Items
	if items == nil {
		items = []models.Item{}
	}
	return dto.ReceiptResponse{
		ID:            r.ID.String(),
		StoreName:     r.StoreName,
		Address:       r.Address,
		Date:          r.Date,
		Category:      string(r.Category),
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		Total:         r.Total,
		PaymentMethod: r.PaymentMethod,
		Items:         items,
		FuelInfo:      r.FuelInfo,
		RawText:       r.RawText,
		Confidence:    r.Confidence,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}

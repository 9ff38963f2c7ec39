package dto

import "billsnap/internal/models"

type ReceiptResponse struct {
	ID            string           `json:"id"`
	StoreName     *string          `json:"store_name"`
	Address       *string          `json:"address"`
	Date          *string          `json:"date"`
	Category      string           `json:"category"`
	Subtotal      *models.Amount   `json:"subtotal"`
	Tax           *models.Amount   `json:"tax"`
	Total         *models.Amount   `json:"total"`
	PaymentMethod *string          `json:"payment_method"`
	Items         []models.Item    `json:"items"`
	FuelInfo      *models.FuelInfo `json:"fuel_info"`
	RawText       string           `json:"raw_text"`
	Confidence    float64          `json:"confidence"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// UploadReceiptResponse annotates the stored receipt with the outcome of the
// extraction pipeline. ID is empty when persistence failed but extraction
// still produced data (fail-soft). ExtractionDegraded is set when the
// extraction call failed and the all-null default was used.
type UploadReceiptResponse struct {
	Receipt            ReceiptResponse `json:"receipt"`
	Confidence         float64         `json:"confidence"`
	Status             string          `json:"status"`
	ExtractionDegraded bool            `json:"extraction_degraded"`
}

// UpdateReceiptRequest is a field-level patch: only non-nil fields are
// applied. Category changes go through their own endpoint so the closed set
// can be validated with a proper error.
type UpdateReceiptRequest struct {
	StoreName     *string          `json:"store_name"`
	Address       *string          `json:"address"`
	Date          *string          `json:"date"`
	Subtotal      *models.Amount   `json:"subtotal"`
	Tax           *models.Amount   `json:"tax"`
	Total         *models.Amount   `json:"total"`
	PaymentMethod *string          `json:"payment_method"`
	Items         *[]models.Item   `json:"items"`
	FuelInfo      *models.FuelInfo `json:"fuel_info"`
}

type UpdateCategoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type CategoriesResponse struct {
	Categories []models.ReceiptCategory `json:"categories"`
}

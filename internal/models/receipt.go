package models

import (
	"time"

	"github.com/google/uuid"
)

type ReceiptCategory string

const (
	CategoryGrocery      ReceiptCategory = "grocery"
	CategoryRestaurant   ReceiptCategory = "restaurant"
	CategoryPetrol       ReceiptCategory = "petrol"
	CategoryPharmacy     ReceiptCategory = "pharmacy"
	CategoryElectronics  ReceiptCategory = "electronics"
	CategoryFoodDelivery ReceiptCategory = "food_delivery"
	CategoryParking      ReceiptCategory = "parking"
	CategoryToll         ReceiptCategory = "toll"
	CategoryGeneral      ReceiptCategory = "general"
)

type Item struct {
	Name  *string `json:"name"`
	Qty   *Amount `json:"qty"`
	Price *Amount `json:"price"`
}

type FuelInfo struct {
	FuelType       *string `json:"fuel_type"`
	QuantityLiters *Amount `json:"quantity_liters"`
	RatePerLiter   *Amount `json:"rate_per_liter"`
	Amount         *Amount `json:"amount"`
}

// ExtractedReceipt is the canonical extraction schema. Every field is
// independently optional: the model is instructed to return null for anything
// it cannot read off the image, and an absent field stays nil rather than
// collapsing to a zero value.
type ExtractedReceipt struct {
	StoreName     *string   `json:"store_name"`
	Address       *string   `json:"address"`
	Date          *string   `json:"date"`
	Category      *string   `json:"category"`
	Subtotal      *Amount   `json:"subtotal"`
	Tax           *Amount   `json:"tax"`
	Total         *Amount   `json:"total"`
	PaymentMethod *string   `json:"payment_method"`
	Items         []Item    `json:"items"`
	FuelInfo      *FuelInfo `json:"fuel_info"`
}

// EmptyExtractedReceipt returns the all-null default used when extraction
// degrades.
func EmptyExtractedReceipt() *ExtractedReceipt {
	return &ExtractedReceipt{Items: []Item{}}
}

// ReceiptUpdate is a field-level patch against a stored receipt. Nil fields
// are left untouched; updated_at is always refreshed by the store.
type ReceiptUpdate struct {
	StoreName     *string
	Address       *string
	Date          *string
	Category      *ReceiptCategory
	Subtotal      *Amount
	Tax           *Amount
	Total         *Amount
	PaymentMethod *string
	Items         *[]Item
	FuelInfo      *FuelInfo
}

// Receipt is the persisted record: the extracted fields bound to an owning
// user, plus the raw OCR side-channel text and the confidence annotation.
type Receipt struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	StoreName     *string         `db:"store_name"`
	Address       *string         `db:"address"`
	Date          *string         `db:"date"`
	Category      ReceiptCategory `db:"category"`
	Subtotal      *Amount         `db:"subtotal"`
	Tax           *Amount         `db:"tax"`
	Total         *Amount         `db:"total"`
	PaymentMethod *string         `db:"payment_method"`
	Items         []Item          `db:"items"`
	FuelInfo      *FuelInfo       `db:"fuel_info"`
	RawText       string          `db:"raw_text"`
	Confidence    float64         `db:"confidence"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

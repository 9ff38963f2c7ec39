package service

import (
	"strings"

	"billsnap/internal/models"
)

type categoryEntry struct {
	category models.ReceiptCategory
	keywords []string
}

// categoryTable maps categories to the keywords that identify them. The
// table is scanned in order and the first keyword hit wins, so the order is
// part of the classification contract.
var categoryTable = []categoryEntry{
	{models.CategoryGrocery, []string{
		"grocery", "supermarket", "mart", "store", "provisions",
		"reliance", "dmart", "big bazaar", "more", "star bazaar",
		"vegetables", "fruits", "dairy", "milk",
	}},
	{models.CategoryRestaurant, []string{
		"restaurant", "cafe", "coffee", "dine", "kitchen", "hotel",
		"mcdonald", "kfc", "subway", "pizza", "domino", "starbucks",
		"food", "meal", "breakfast", "lunch", "dinner",
	}},
	{models.CategoryPetrol, []string{
		"petrol", "diesel", "fuel", "gas", "bharat petroleum", "bp",
		"indian oil", "hp", "shell", "essar", "reliance petroleum",
	}},
	{models.CategoryPharmacy, []string{
		"pharmacy", "medical", "chemist", "drugstore", "apollo",
		"medicine", "tablet", "capsule", "syrup", "ointment",
	}},
	{models.CategoryElectronics, []string{
		"electronics", "mobile", "laptop", "computer", "croma",
		"reliance digital", "vijay sales", "samsung", "apple",
		"tv", "phone", "tablet", "gadget", "charger",
	}},
	{models.CategoryFoodDelivery, []string{
		"swiggy", "zomato", "uber eats", "food delivery", "dunzo",
		"delivery", "online food",
	}},
	{models.CategoryParking, []string{
		"parking", "park", "valet",
	}},
	{models.CategoryToll, []string{
		"toll", "fastag", "highway",
	}},
}

// AssignCategory classifies a receipt from its store name and item names.
// Returns the general category when no keyword matches.
func AssignCategory(extracted *models.ExtractedReceipt) models.ReceiptCategory {
	var storeName string
	if extracted.StoreName != nil {
		storeName = strings.ToLower(*extracted.StoreName)
	}

	var itemNames []string
	for _, item := range extracted.Items {
		if item.Name != nil && *item.Name != "" {
			itemNames = append(itemNames, strings.ToLower(*item.Name))
		}
	}

	searchText := storeName + " " + strings.Join(itemNames, " ")

	for _, entry := range categoryTable {
		for _, keyword := range entry.keywords {
			if strings.Contains(searchText, keyword) {
				return entry.category
			}
		}
	}

	return models.CategoryGeneral
}

// ValidateCategory reports whether the string is a member of the closed
// category set.
func ValidateCategory(category string) bool {
	for _, c := range AllCategories() {
		if models.ReceiptCategory(category) == c {
			return true
		}
	}
	return false
}

// AllCategories returns every valid category in declaration order.
func AllCategories() []models.ReceiptCategory {
	return []models.ReceiptCategory{
		models.CategoryGrocery,
		models.CategoryRestaurant,
		models.CategoryPetrol,
		models.CategoryPharmacy,
		models.CategoryElectronics,
		models.CategoryFoodDelivery,
		models.CategoryParking,
		models.CategoryToll,
		models.CategoryGeneral,
	}
}

package models

// MonthlyTotal is a spending aggregate for one calendar month (YYYY-MM).
type MonthlyTotal struct {
	Month string  `db:"month"`
	Total float64 `db:"total"`
}

// CategoryTotal is a spending aggregate for one category.
type CategoryTotal struct {
	Category string  `db:"category"`
	Total    float64 `db:"total"`
}

package dto

type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type MonthlyAnalyticsResponse struct {
	Data []MonthlyTotal `json:"data"`
}

type CategoryAnalyticsResponse struct {
	Data []CategoryTotal `json:"data"`
}

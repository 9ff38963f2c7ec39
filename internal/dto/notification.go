package dto

type RegisterPushTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=expo ios android"`
}

type UnregisterPushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type NotificationResponse struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt string            `json:"sent_at"`
	Read   bool              `json:"read"`
}

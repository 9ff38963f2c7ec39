package models

import (
	"time"

	"github.com/google/uuid"
)

type PushPlatform string

const (
	PlatformExpo    PushPlatform = "expo"
	PlatformIOS     PushPlatform = "ios"
	PlatformAndroid PushPlatform = "android"
)

type PushToken struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	Token     string       `db:"token"`
	Platform  PushPlatform `db:"platform"`
	Active    bool         `db:"active"`
	CreatedAt time.Time    `db:"created_at"`
}

type Notification struct {
	ID     uuid.UUID         `db:"id"`
	UserID uuid.UUID         `db:"user_id"`
	Title  string            `db:"title"`
	Body   string            `db:"body"`
	Data   map[string]string `db:"data"`
	SentAt time.Time         `db:"sent_at"`
	Read   bool              `db:"read"`
}

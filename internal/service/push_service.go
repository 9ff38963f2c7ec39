package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"billsnap/internal/dto"
	"billsnap/internal/models"
	"billsnap/internal/repository"
	"billsnap/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoActivePushTokens   = errors.New("no active push tokens for user")
	ErrPushTokenNotFound    = errors.New("push token not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// expoPushMessage is the Expo push API message shape.
// Docs: https://docs.expo.dev/push-notifications/sending-notifications/
type expoPushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound"`
	Data  map[string]string `json:"data,omitempty"`
}

type PushService struct {
	tokenRepo  *repository.PushTokenRepository
	notifRepo  *repository.NotificationRepository
	enabled    bool
	pushURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPushService(
	tokenRepo *repository.PushTokenRepository,
	notifRepo *repository.NotificationRepository,
	cfg *config.PushConfig,
	logger *zap.Logger,
) *PushService {
	return &PushService{
		tokenRepo:  tokenRepo,
		notifRepo:  notifRepo,
		enabled:    cfg.Enabled,
		pushURL:    cfg.URL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// RegisterToken stores a push token for the user, reactivating it if the
// same token was registered before.
func (s *PushService) RegisterToken(ctx context.Context, userID uuid.UUID, req *dto.RegisterPushTokenRequest) (string, error) {
	platform := models.PushPlatform(req.Platform)
	if platform == "" {
		platform = models.PlatformExpo
	}

	existing, err := s.tokenRepo.GetByUserAndToken(ctx, userID, req.Token)
	if err == nil && existing != nil {
		if err := s.tokenRepo.SetActive(ctx, existing.ID, platform, true); err != nil {
			return "", err
		}
		return "reactivated", nil
	}

	token := &models.PushToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     req.Token,
		Platform:  platform,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", err
	}
	return "created", nil
}

// UnregisterToken deactivates a token; the row is kept for history.
func (s *PushService) UnregisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	deactivated, err := s.tokenRepo.Deactivate(ctx, userID, token)
	if err != nil {
		return err
	}
	if !deactivated {
		return ErrPushTokenNotFound
	}
	return nil
}

func (s *PushService) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]dto.NotificationResponse, error) {
	notifications, err := s.notifRepo.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = dto.NotificationResponse{
			ID:     n.ID.String(),
			Title:  n.Title,
			Body:   n.Body,
			Data:   n.Data,
			SentAt: n.SentAt.Format(time.RFC3339),
			Read:   n.Read,
		}
	}
	return responses, nil
}

func (s *PushService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	marked, err := s.notifRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !marked {
		return ErrNotificationNotFound
	}
	return nil
}

// SendToUser pushes to every active token of the user and records the
// notification in their feed.
func (s *PushService) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	tokens, err := s.tokenRepo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return ErrNoActivePushTokens
	}

	if s.enabled {
		if err := s.sendExpoPush(ctx, tokens, title, body, data); err != nil {
			return err
		}
	}

	notification := &models.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   data,
		SentAt: time.Now(),
		Read:   false,
	}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		s.logger.Warn("Failed to record notification", zap.Error(err))
	}
	return nil
}

// SendReceiptProcessed implements ReceiptNotifier. Delivery is best-effort:
// failures are logged, never propagated into the upload flow.
func (s *PushService) SendReceiptProcessed(ctx context.Context, userID uuid.UUID, receiptID, storeName string) {
	if storeName == "" {
		storeName = "your receipt"
	}
	err := s.SendToUser(ctx, userID,
		"Receipt Processed!",
		fmt.Sprintf("Your receipt from %s has been processed successfully.", storeName),
		map[string]string{
			"type":       "receipt_processed",
			"receipt_id": receiptID,
		},
	)
	if err != nil && !errors.Is(err, ErrNoActivePushTokens) {
		s.logger.Warn("Failed to send receipt processed notification",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// SendTest pushes a test notification to the user's devices.
func (s *PushService) SendTest(ctx context.Context, userID uuid.UUID) error {
	return s.SendToUser(ctx, userID,
		"Test Notification",
		"This is a test notification from Billsnap!",
		map[string]string{"type": "test"},
	)
}

func (s *PushService) sendExpoPush(ctx context.Context, tokens []*models.PushToken, title, body string, data map[string]string) error {
	messages := make([]expoPushMessage, len(tokens))
	for i, t := range tokens {
		messages[i] = expoPushMessage{
			To:    t.Token,
			Title: title,
			Body:  body,
			Sound: "default",
			Data:  data,
		}
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshaling push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Info("Push notification sent", zap.Int("recipients", len(tokens)))
	return nil
}

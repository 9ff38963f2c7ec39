package handlers

import (
	"billsnap/internal/dto"
	"billsnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	pushService *service.PushService
	logger      *zap.Logger
}

func NewNotificationHandler(pushService *service.PushService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		pushService: pushService,
		logger:      logger,
	}
}

// RegisterToken godoc
// @Summary Register a push token
// @Description Register or reactivate a device push token
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body dto.RegisterPushTokenRequest true "Push token"
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/notifications/register-token [post]
func (h *NotificationHandler) RegisterToken(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.RegisterPushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status, err := h.pushService.RegisterToken(c.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to register push token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register push token",
		})
	}

	return c.JSON(fiber.Map{"status": status})
}

// UnregisterToken godoc
// @Summary Unregister a push token
// @Description Deactivate a device push token
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body dto.UnregisterPushTokenRequest true "Push token"
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/notifications/unregister-token [delete]
func (h *NotificationHandler) UnregisterToken(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.UnregisterPushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.pushService.UnregisterToken(c.Context(), userID, req.Token); err != nil {
		if err == service.ErrPushTokenNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Push token not found",
			})
		}
		h.logger.Error("Failed to unregister push token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unregister push token",
		})
	}

	return c.JSON(fiber.Map{"status": "deactivated"})
}

// ListNotifications godoc
// @Summary List notifications
// @Description List the user's notification feed, newest first
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size (default 50)"
// @Security Bearer
// @Success 200 {array} dto.NotificationResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	notifications, err := h.pushService.ListNotifications(c.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}

	return c.JSON(notifications)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid notification ID",
		})
	}

	if err := h.pushService.MarkRead(c.Context(), userID, notificationID); err != nil {
		if err == service.ErrNotificationNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Notification not found",
			})
		}
		h.logger.Error("Failed to mark notification read", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notification read",
		})
	}

	return c.JSON(fiber.Map{"status": "read"})
}

// SendTest godoc
// @Summary Send a test notification
// @Description Push a test notification to the user's registered devices
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/notifications/send-test [post]
func (h *NotificationHandler) SendTest(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.pushService.SendTest(c.Context(), userID); err != nil {
		if err == service.ErrNoActivePushTokens {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No active push tokens registered",
			})
		}
		h.logger.Error("Failed to send test notification", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send test notification",
		})
	}

	return c.JSON(fiber.Map{"status": "sent"})
}

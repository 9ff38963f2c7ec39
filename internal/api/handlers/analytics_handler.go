package handlers

import (
	"billsnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// MonthlyAnalytics godoc
// @Summary Monthly spending totals
// @Description Spending totals per calendar month, newest first
// @Tags analytics
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.MonthlyAnalyticsResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/analytics/monthly [get]
func (h *AnalyticsHandler) MonthlyAnalytics(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.analyticsService.MonthlyAnalytics(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute monthly analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute analytics",
		})
	}

	return c.JSON(resp)
}

// CategoryAnalytics godoc
// @Summary Category spending totals
// @Description Spending totals per category, largest first
// @Tags analytics
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CategoryAnalyticsResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/analytics/category [get]
func (h *AnalyticsHandler) CategoryAnalytics(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.analyticsService.CategoryAnalytics(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute category analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute analytics",
		})
	}

	return c.JSON(resp)
}

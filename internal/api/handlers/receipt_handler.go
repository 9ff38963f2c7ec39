package handlers

import (
	"errors"
	"io"
	"strings"

	"billsnap/internal/dto"
	"billsnap/internal/preprocess"
	"billsnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		logger:         logger,
	}
}

// UploadReceipt godoc
// @Summary Upload a receipt image
// @Description Upload a receipt photo for normalization, extraction and scoring
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image"
// @Security Bearer
// @Success 201 {object} dto.UploadReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts/upload [post]
func (h *ReceiptHandler) UploadReceipt(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	// Declared content type is checked before any pipeline work runs.
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File must be an image",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	resp, err := h.receiptService.UploadReceipt(c.Context(), userID, imageBytes)
	if err != nil {
		var decodeErr *preprocess.DecodeError
		if errors.As(err, &decodeErr) {
			h.logger.Warn("Undecodable receipt image", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error processing receipt image",
			})
		}
		h.logger.Error("Failed to process receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process receipt",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListReceipts godoc
// @Summary List receipts
// @Description List the authenticated user's receipts, newest first
// @Tags receipts
// @Produce json
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset (default 0)"
// @Security Bearer
// @Success 200 {array} dto.ReceiptResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts [get]
func (h *ReceiptHandler) ListReceipts(c *fiber.Ctx) error {
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
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	receipts, err := h.receiptService.ListReceipts(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list receipts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list receipts",
		})
	}

	return c.JSON(receipts)
}

// GetReceipt godoc
// @Summary Get a receipt
// @Description Get one of the authenticated user's receipts by id
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt ID",
		})
	}

	resp, err := h.receiptService.GetReceipt(c.Context(), userID, receiptID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Receipt not found",
		})
	}

	return c.JSON(resp)
}

// UpdateReceipt godoc
// @Summary Update a receipt
// @Description Patch fields of one of the authenticated user's receipts
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.UpdateReceiptRequest true "Fields to update"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [put]
func (h *ReceiptHandler) UpdateReceipt(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt ID",
		})
	}

	var req dto.UpdateReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.receiptService.UpdateReceipt(c.Context(), userID, receiptID, &req)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Receipt not found",
		})
	}

	return c.JSON(resp)
}

// UpdateCategory godoc
// @Summary Update a receipt's category
// @Description Set the category of one of the authenticated user's receipts
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.UpdateCategoryRequest true "New category"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id}/category [put]
func (h *ReceiptHandler) UpdateCategory(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt ID",
		})
	}

	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.receiptService.UpdateCategory(c.Context(), userID, receiptID, req.Category)
	if err != nil {
		if err == service.ErrInvalidCategory {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":            "Invalid category",
				"valid_categories": service.AllCategories(),
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Receipt not found",
		})
	}

	return c.JSON(resp)
}

// DeleteReceipt godoc
// @Summary Delete a receipt
// @Description Delete one of the authenticated user's receipts
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt ID",
		})
	}

	if err := h.receiptService.DeleteReceipt(c.Context(), userID, receiptID); err != nil {
		if err == service.ErrReceiptNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Receipt not found",
			})
		}
		h.logger.Error("Failed to delete receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete receipt",
		})
	}

	return c.JSON(fiber.Map{"message": "Receipt deleted"})
}

// ListCategories godoc
// @Summary List valid categories
// @Description List all valid receipt categories
// @Tags receipts
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/receipts/categories [get]
func (h *ReceiptHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(dto.CategoriesResponse{Categories: service.AllCategories()})
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

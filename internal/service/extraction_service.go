package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"billsnap/internal/models"
	"billsnap/pkg/config"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// extractionPromptFmt instructs the model to fill the canonical receipt
// schema with strict JSON and nothing else. The %s at the end carries the
// OCR side-channel text as supporting context.
const extractionPromptFmt = `Extract all visible information from the receipt image.
If a field does not exist, return null.
Return JSON ONLY. No explanatory text.
Never hallucinate or invent details.
Use the universal schema strictly.

Use category classification from: grocery, restaurant, petrol, pharmacy, electronics, food_delivery, parking, toll, general

Return in this exact JSON format:
{
  "store_name": null,
  "address": null,
  "date": null,
  "category": null,
  "subtotal": null,
  "tax": null,
  "total": null,
  "payment_method": null,
  "items": [
    {
      "name": null,
      "qty": null,
      "price": null
    }
  ],
  "fuel_info": {
    "fuel_type": null,
    "quantity_liters": null,
    "rate_per_liter": null,
    "amount": null
  }
}

OCR Text (supporting information):
%s

Extract the receipt data now.`

// ExtractionResult distinguishes a clean extraction from one that degraded
// to the empty default. Receipt is never nil; when Degraded is set, Cause
// carries the underlying failure for observability.
type ExtractionResult struct {
	Receipt  *models.ExtractedReceipt
	Degraded bool
	Cause    error
}

// Extractor is the multimodal extraction boundary. Implementations never
// fail: any error degrades to the all-null receipt.
type Extractor interface {
	Extract(ctx context.Context, imageBytes []byte, ocrText string) ExtractionResult
	Close() error
}

type ExtractionService struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

func NewExtractionService(cfg *config.GeminiConfig, logger *zap.Logger) (*ExtractionService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &ExtractionService{
		client:  client,
		model:   client.GenerativeModel(cfg.Model),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Extract sends the normalized JPEG plus the OCR text to the model and
// parses the strict-JSON response into the canonical schema. It never
// returns an error: network failures, empty responses and malformed JSON
// all degrade to the empty receipt so the upload flow can continue.
func (s *ExtractionService) Extract(ctx context.Context, imageBytes []byte, ocrText string) ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(extractionPromptFmt, ocrText)
	parts := []genai.Part{
		genai.ImageData("jpeg", imageBytes),
		genai.Text(prompt),
	}

	resp, err := s.model.GenerateContent(ctx, parts...)
	if err != nil {
		return s.degrade(fmt.Errorf("generating content: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return s.degrade(fmt.Errorf("empty response from model"))
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	receipt, err := parseExtractionJSON(responseText.String())
	if err != nil {
		return s.degrade(err)
	}

	return ExtractionResult{Receipt: receipt}
}

func (s *ExtractionService) degrade(cause error) ExtractionResult {
	s.logger.Warn("Extraction degraded to empty receipt", zap.Error(cause))
	return ExtractionResult{
		Receipt:  models.EmptyExtractedReceipt(),
		Degraded: true,
		Cause:    cause,
	}
}

func (s *ExtractionService) Close() error {
	return s.client.Close()
}

// parseExtractionJSON strips markdown code fences the model sometimes wraps
// its output in, then parses the remainder as the canonical schema. A parse
// failure fails the whole extraction; partial objects are never returned.
func parseExtractionJSON(text string) (*models.ExtractedReceipt, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var receipt models.ExtractedReceipt
	if err := json.Unmarshal([]byte(text), &receipt); err != nil {
		return nil, fmt.Errorf("unmarshaling extraction response: %w", err)
	}

	if receipt.Items == nil {
		receipt.Items = []models.Item{}
	}
	return &receipt, nil
}

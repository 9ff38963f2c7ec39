package service

import (
	"strings"

	"billsnap/pkg/config"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TextExtractor is the optional OCR side channel. Failures degrade to an
// empty string; they never abort the pipeline.
type TextExtractor interface {
	ExtractText(imageBytes []byte) string
}

type OCRService struct {
	enabled  bool
	language string
	logger   *zap.Logger
}

func NewOCRService(cfg *config.OCRConfig, logger *zap.Logger) *OCRService {
	return &OCRService{
		enabled:  cfg.Enabled,
		language: cfg.Language,
		logger:   logger,
	}
}

// ExtractText runs tesseract over the normalized image and returns the
// recognized text. The client is not safe for concurrent use, so each call
// gets its own.
func (s *OCRService) ExtractText(imageBytes []byte) string {
	if !s.enabled {
		return ""
	}

	client := gosseract.NewClient()
	defer client.Close()

	if s.language != "" {
		if err := client.SetLanguage(s.language); err != nil {
			s.logger.Warn("Failed to set OCR language", zap.Error(err))
		}
	}

	if err := client.SetImageFromBytes(imageBytes); err != nil {
		s.logger.Warn("OCR failed to read image", zap.Error(err))
		return ""
	}

	text, err := client.Text()
	if err != nil {
		s.logger.Warn("OCR extraction failed", zap.Error(err))
		return ""
	}

	return strings.TrimSpace(text)
}

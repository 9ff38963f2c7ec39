package service

import (
	"billsnap/internal/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CalculateConfidence", func() {
	var (
		extracted *models.ExtractedReceipt
		rawText   string
		score     float64
		tier      string
	)

	amt := func(v float64) *models.Amount {
		a := models.Amount(v)
		return &a
	}

	JustBeforeEach(func() {
		score, tier = CalculateConfidence(extracted, rawText)
	})

	When("the extraction is complete", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				StoreName: strPtr("Reliance Fresh"),
				Date:      strPtr("2025-06-01"),
				Total:     amt(425.50),
				Items:     []models.Item{{Name: strPtr("Milk 1L"), Price: amt(62)}},
			}
			rawText = "RELIANCE FRESH\nMILK 1L 62.00\nTOTAL 425.50"
		})

		It("should score the full 100", func() {
			Expect(score).To(Equal(100.0))
		})

		It("should report the high tier", func() {
			Expect(tier).To(Equal(TierHigh))
		})
	})

	When("only the store name, total and date are present", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				StoreName: strPtr("Corner Shop"),
				Date:      strPtr("2025-06-01"),
				Total:     amt(99),
			}
			rawText = "short"
		})

		It("should score 50", func() {
			Expect(score).To(Equal(50.0))
		})

		It("should report the medium tier", func() {
			Expect(tier).To(Equal(TierMedium))
		})
	})

	When("the extraction is empty", func() {
		BeforeEach(func() {
			extracted = models.EmptyExtractedReceipt()
			rawText = ""
		})

		It("should score 0", func() {
			Expect(score).To(Equal(0.0))
		})

		It("should report the low tier", func() {
			Expect(tier).To(Equal(TierLow))
		})
	})

	When("the score lands exactly on the high boundary", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				StoreName: strPtr("Shell"),
				Date:      strPtr("2025-06-01"),
				Items:     []models.Item{{Name: strPtr("Diesel")}},
			}
			rawText = ""
		})

		It("should score 70 and be high", func() {
			Expect(score).To(Equal(70.0))
			Expect(tier).To(Equal(TierHigh))
		})
	})

	When("the score lands exactly on the medium boundary", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				Items: []models.Item{{Name: strPtr("Something")}},
			}
			rawText = ""
		})

		It("should score 40 and be medium", func() {
			Expect(score).To(Equal(40.0))
			Expect(tier).To(Equal(TierMedium))
		})
	})

	When("the total is present but zero", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{Total: amt(0)}
			rawText = ""
		})

		It("should not count the total", func() {
			Expect(score).To(Equal(0.0))
		})
	})

	When("fuel info substitutes for line items", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				FuelInfo: &models.FuelInfo{FuelType: strPtr("diesel")},
			}
			rawText = ""
		})

		It("should award the item points", func() {
			Expect(score).To(Equal(40.0))
		})
	})

	When("items exist but none are named", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				Items: []models.Item{{Price: amt(10)}, {Name: strPtr("")}},
			}
			rawText = ""
		})

		It("should not award the item points", func() {
			Expect(score).To(Equal(0.0))
		})
	})
})

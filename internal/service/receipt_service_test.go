package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"billsnap/internal/dto"
	"billsnap/internal/models"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

type fakeReceiptRepo struct {
	mu        sync.Mutex
	receipts  map[uuid.UUID]*models.Receipt
	createErr error
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: map[uuid.UUID]*models.Receipt{}}
}

func (r *fakeReceiptRepo) Create(_ context.Context, receipt *models.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	stored := *receipt
	r.receipts[receipt.ID] = &stored
	return nil
}

func (r *fakeReceiptRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok || receipt.UserID != userID {
		return nil, errors.New("no rows in result set")
	}
	found := *receipt
	return &found, nil
}

func (r *fakeReceiptRepo) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Receipt
	for _, receipt := range r.receipts {
		if receipt.UserID == userID {
			found := *receipt
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *fakeReceiptRepo) Update(_ context.Context, id, userID uuid.UUID, update *models.ReceiptUpdate) (*models.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok || receipt.UserID != userID {
		return nil, errors.New("no rows in result set")
	}
	if update.StoreName != nil {
		receipt.StoreName = update.StoreName
	}
	if update.Date != nil {
		receipt.Date = update.Date
	}
	if update.Category != nil {
		receipt.Category = *update.Category
	}
	if update.Total != nil {
		receipt.Total = update.Total
	}
	if update.Items != nil {
		receipt.Items = *update.Items
	}
	receipt.UpdatedAt = time.Now().UTC()
	found := *receipt
	return &found, nil
}

func (r *fakeReceiptRepo) Delete(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok || receipt.UserID != userID {
		return false, nil
	}
	delete(r.receipts, id)
	return true, nil
}

func (r *fakeReceiptRepo) get(id uuid.UUID) *models.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receipts[id]
}

type fakeExtractor struct {
	result ExtractionResult
}

func (e *fakeExtractor) Extract(context.Context, []byte, string) ExtractionResult {
	return e.result
}

func (e *fakeExtractor) Close() error { return nil }

type fakeOCR struct {
	text string
}

func (o *fakeOCR) ExtractText([]byte) string { return o.text }

type fakeNotifier struct {
	calls chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan string, 8)}
}

func (n *fakeNotifier) SendReceiptProcessed(_ context.Context, _ uuid.UUID, receiptID, _ string) {
	n.calls <- receiptID
}

// testReceiptJPEG encodes a small synthetic receipt-like image: dark text
// blocks on a light background.
func testReceiptJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 120, 160))
	for y := 0; y < 160; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{235, 235, 230, 255})
		}
	}
	for y := 30; y < 34; y++ {
		for x := 20; x < 100; x++ {
			img.Set(x, y, color.RGBA{20, 20, 20, 255})
		}
	}
	for y := 60; y < 64; y++ {
		for x := 20; x < 80; x++ {
			img.Set(x, y, color.RGBA{20, 20, 20, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var _ = Describe("ReceiptService", func() {
	var (
		repo      *fakeReceiptRepo
		extractor *fakeExtractor
		ocr       *fakeOCR
		notifier  *fakeNotifier
		svc       *ReceiptService
		userID    uuid.UUID
		ctx       context.Context
	)

	amt := func(v float64) *models.Amount {
		a := models.Amount(v)
		return &a
	}

	BeforeEach(func() {
		repo = newFakeReceiptRepo()
		extractor = &fakeExtractor{result: ExtractionResult{Receipt: models.EmptyExtractedReceipt()}}
		ocr = &fakeOCR{}
		notifier = newFakeNotifier()
		userID = uuid.New()
		ctx = context.Background()
		svc = NewReceiptService(repo, extractor, ocr, notifier, true, zap.NewNop())
	})

	Describe("UploadReceipt", func() {
		When("extraction succeeds with a full receipt", func() {
			BeforeEach(func() {
				extractor.result = ExtractionResult{
					Receipt: &models.ExtractedReceipt{
						StoreName: strPtr("Reliance Fresh"),
						Date:      strPtr("2025-06-01"),
						Total:     amt(425.50),
						Items:     []models.Item{{Name: strPtr("Milk"), Price: amt(62)}},
					},
				}
				ocr.text = "RELIANCE FRESH\nMILK 62.00\nTOTAL 425.50"
			})

			It("persists and returns a high-confidence receipt", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Confidence).To(Equal(100.0))
				Expect(resp.Status).To(Equal(TierHigh))
				Expect(resp.ExtractionDegraded).To(BeFalse())
				Expect(resp.Receipt.ID).NotTo(BeEmpty())
				Expect(resp.Receipt.Category).To(Equal("grocery"))

				stored := repo.get(uuid.MustParse(resp.Receipt.ID))
				Expect(stored).NotTo(BeNil())
				Expect(stored.UserID).To(Equal(userID))
			})

			It("notifies the user after persisting", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Eventually(notifier.calls).Should(Receive(Equal(resp.Receipt.ID)))
			})
		})

		When("extraction degrades", func() {
			BeforeEach(func() {
				extractor.result = ExtractionResult{
					Receipt:  models.EmptyExtractedReceipt(),
					Degraded: true,
					Cause:    errors.New("model unavailable"),
				}
			})

			It("still stores a receipt and reports the degradation", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.ExtractionDegraded).To(BeTrue())
				Expect(resp.Status).To(Equal(TierLow))
				Expect(resp.Receipt.Category).To(Equal("general"))
				Expect(resp.Receipt.ID).NotTo(BeEmpty())
			})
		})

		When("the extractor supplies an invalid category", func() {
			BeforeEach(func() {
				extractor.result = ExtractionResult{
					Receipt: &models.ExtractedReceipt{
						StoreName: strPtr("Reliance Fresh"),
						Category:  strPtr("snacks"),
					},
				}
			})

			It("falls back to keyword classification", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Receipt.Category).To(Equal("grocery"))
			})
		})

		When("the extractor supplies a valid category", func() {
			BeforeEach(func() {
				extractor.result = ExtractionResult{
					Receipt: &models.ExtractedReceipt{
						StoreName: strPtr("Reliance Fresh"),
						Category:  strPtr("Pharmacy "),
					},
				}
			})

			It("prefers it over keyword classification, normalized", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Receipt.Category).To(Equal("pharmacy"))
			})
		})

		When("no date was extracted", func() {
			It("defaults the date to today", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				today := time.Now().Format("2006-01-02")
				Expect(resp.Receipt.Date).To(HaveValue(Equal(today)))
			})
		})

		When("persistence fails", func() {
			BeforeEach(func() {
				repo.createErr = errors.New("connection refused")
			})

			It("returns the extracted data without a stored id", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Receipt.ID).To(BeEmpty())
			})
		})

		When("per-upload scoring is disabled", func() {
			BeforeEach(func() {
				svc = NewReceiptService(repo, extractor, ocr, notifier, false, zap.NewNop())
				extractor.result = ExtractionResult{
					Receipt: &models.ExtractedReceipt{
						StoreName: strPtr("Reliance Fresh"),
						Total:     amt(425.50),
						Items:     []models.Item{{Name: strPtr("Milk")}},
					},
				}
			})

			It("stores confidence zero and reports processed", func() {
				resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Confidence).To(Equal(0.0))
				Expect(resp.Status).To(Equal(StatusProcessed))
			})
		})

		When("the image cannot be decoded", func() {
			It("fails the upload", func() {
				_, err := svc.UploadReceipt(ctx, userID, []byte("not an image"))
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("GetReceipt", func() {
		var receiptID uuid.UUID

		BeforeEach(func() {
			resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
			Expect(err).NotTo(HaveOccurred())
			receiptID = uuid.MustParse(resp.Receipt.ID)
		})

		It("returns the owner's receipt", func() {
			resp, err := svc.GetReceipt(ctx, userID, receiptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ID).To(Equal(receiptID.String()))
		})

		It("hides another user's receipt behind not-found", func() {
			_, err := svc.GetReceipt(ctx, uuid.New(), receiptID)
			Expect(err).To(MatchError(ErrReceiptNotFound))
		})

		It("reports not-found for an unknown id", func() {
			_, err := svc.GetReceipt(ctx, userID, uuid.New())
			Expect(err).To(MatchError(ErrReceiptNotFound))
		})
	})

	Describe("UpdateReceipt", func() {
		var receiptID uuid.UUID

		BeforeEach(func() {
			extractor.result = ExtractionResult{
				Receipt: &models.ExtractedReceipt{
					StoreName: strPtr("Reliance Fresh"),
					Total:     amt(100),
				},
			}
			resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
			Expect(err).NotTo(HaveOccurred())
			receiptID = uuid.MustParse(resp.Receipt.ID)
		})

		It("patches only the provided fields", func() {
			resp, err := svc.UpdateReceipt(ctx, userID, receiptID, &dto.UpdateReceiptRequest{Total: amt(250)})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Total).To(HaveValue(Equal(models.Amount(250))))
			Expect(resp.StoreName).To(HaveValue(Equal("Reliance Fresh")))
		})

		It("hides foreign receipts behind not-found", func() {
			_, err := svc.UpdateReceipt(ctx, uuid.New(), receiptID, &dto.UpdateReceiptRequest{Total: amt(250)})
			Expect(err).To(MatchError(ErrReceiptNotFound))
		})
	})

	Describe("UpdateCategory", func() {
		var receiptID uuid.UUID

		BeforeEach(func() {
			resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
			Expect(err).NotTo(HaveOccurred())
			receiptID = uuid.MustParse(resp.Receipt.ID)
		})

		It("sets a valid category", func() {
			resp, err := svc.UpdateCategory(ctx, userID, receiptID, "petrol")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Category).To(Equal("petrol"))
		})

		It("rejects an invalid category before touching the store", func() {
			_, err := svc.UpdateCategory(ctx, userID, receiptID, "snacks")
			Expect(err).To(MatchError(ErrInvalidCategory))
		})
	})

	Describe("DeleteReceipt", func() {
		var receiptID uuid.UUID

		BeforeEach(func() {
			resp, err := svc.UploadReceipt(ctx, userID, testReceiptJPEG())
			Expect(err).NotTo(HaveOccurred())
			receiptID = uuid.MustParse(resp.Receipt.ID)
		})

		It("deletes the owner's receipt", func() {
			Expect(svc.DeleteReceipt(ctx, userID, receiptID)).To(Succeed())
			_, err := svc.GetReceipt(ctx, userID, receiptID)
			Expect(err).To(MatchError(ErrReceiptNotFound))
		})

		It("hides foreign receipts behind not-found", func() {
			err := svc.DeleteReceipt(ctx, uuid.New(), receiptID)
			Expect(err).To(MatchError(ErrReceiptNotFound))
		})
	})
})

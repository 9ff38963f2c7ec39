package service

import (
	"billsnap/internal/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AssignCategory", func() {
	var (
		extracted *models.ExtractedReceipt
		category  models.ReceiptCategory
	)

	JustBeforeEach(func() {
		category = AssignCategory(extracted)
	})

	When("the store name carries a grocery keyword", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{StoreName: strPtr("Reliance Fresh Grocery Store")}
		})

		It("should classify as grocery", func() {
			Expect(category).To(Equal(models.CategoryGrocery))
		})
	})

	When("the store name is a restaurant chain", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{StoreName: strPtr("McDonald's")}
		})

		It("should classify as restaurant", func() {
			Expect(category).To(Equal(models.CategoryRestaurant))
		})
	})

	When("only the item names match", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{
				StoreName: strPtr("XYZ Traders"),
				Items:     []models.Item{{Name: strPtr("Toned Milk 500ml")}},
			}
		})

		It("should classify from the items", func() {
			Expect(category).To(Equal(models.CategoryGrocery))
		})
	})

	When("matching is case-insensitive", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{StoreName: strPtr("APOLLO PHARMACY")}
		})

		It("should still classify", func() {
			Expect(category).To(Equal(models.CategoryPharmacy))
		})
	})

	When("keywords from two categories both match", func() {
		BeforeEach(func() {
			// "supermarket" (grocery) and "coffee" (restaurant) both hit;
			// the earlier table entry wins.
			extracted = &models.ExtractedReceipt{
				StoreName: strPtr("Supermarket"),
				Items:     []models.Item{{Name: strPtr("Coffee Beans")}},
			}
		})

		It("should pick the first category in table order", func() {
			Expect(category).To(Equal(models.CategoryGrocery))
		})
	})

	When("nothing matches", func() {
		BeforeEach(func() {
			extracted = &models.ExtractedReceipt{StoreName: strPtr("Quixotic Ventures")}
		})

		It("should fall back to general", func() {
			Expect(category).To(Equal(models.CategoryGeneral))
		})
	})

	When("the extraction is empty", func() {
		BeforeEach(func() {
			extracted = models.EmptyExtractedReceipt()
		})

		It("should fall back to general", func() {
			Expect(category).To(Equal(models.CategoryGeneral))
		})
	})
})

var _ = Describe("ValidateCategory", func() {
	It("accepts every member of the closed set", func() {
		for _, c := range AllCategories() {
			Expect(ValidateCategory(string(c))).To(BeTrue(), string(c))
		}
	})

	It("rejects unknown values", func() {
		Expect(ValidateCategory("snacks")).To(BeFalse())
	})

	It("rejects the empty string", func() {
		Expect(ValidateCategory("")).To(BeFalse())
	})

	It("is case-sensitive", func() {
		Expect(ValidateCategory("Grocery")).To(BeFalse())
	})
})

var _ = Describe("AllCategories", func() {
	It("includes the general fallback", func() {
		Expect(AllCategories()).To(ContainElement(models.CategoryGeneral))
	})

	It("has nine members", func() {
		Expect(AllCategories()).To(HaveLen(9))
	})
})

package service

import (
	"billsnap/internal/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseExtractionJSON", func() {
	var (
		input   string
		receipt *models.ExtractedReceipt
		err     error
	)

	JustBeforeEach(func() {
		receipt, err = parseExtractionJSON(input)
	})

	When("parsing plain JSON", func() {
		BeforeEach(func() {
			input = `{"store_name": "Reliance Fresh", "total": 425.50, "items": [{"name": "Milk", "qty": 2, "price": 62}]}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the store name", func() {
			Expect(receipt.StoreName).To(HaveValue(Equal("Reliance Fresh")))
		})

		It("should parse the total", func() {
			Expect(receipt.Total).To(HaveValue(Equal(models.Amount(425.50))))
		})

		It("should parse the items", func() {
			Expect(receipt.Items).To(HaveLen(1))
			Expect(receipt.Items[0].Name).To(HaveValue(Equal("Milk")))
		})
	})

	When("the model wraps the JSON in a markdown fence", func() {
		BeforeEach(func() {
			input = "```json\n{\"store_name\": \"Shell\", \"total\": 2000}\n```"
		})

		It("should strip the fence and parse", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.StoreName).To(HaveValue(Equal("Shell")))
		})
	})

	When("the fence has no language tag", func() {
		BeforeEach(func() {
			input = "```\n{\"store_name\": \"Shell\"}\n```"
		})

		It("should strip the fence and parse", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.StoreName).To(HaveValue(Equal("Shell")))
		})
	})

	When("amounts arrive as formatted strings", func() {
		BeforeEach(func() {
			input = `{"total": "1,234.50"}`
		})

		It("should normalize the thousands separator", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Total).To(HaveValue(Equal(models.Amount(1234.50))))
		})
	})

	When("every field is null", func() {
		BeforeEach(func() {
			input = `{"store_name": null, "total": null, "items": null, "fuel_info": null}`
		})

		It("should keep optional fields nil", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.StoreName).To(BeNil())
			Expect(receipt.Total).To(BeNil())
			Expect(receipt.FuelInfo).To(BeNil())
		})

		It("should normalize nil items to an empty slice", func() {
			Expect(receipt.Items).NotTo(BeNil())
			Expect(receipt.Items).To(BeEmpty())
		})
	})

	When("the response is not JSON at all", func() {
		BeforeEach(func() {
			input = "I could not read this receipt, sorry."
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
			Expect(receipt).To(BeNil())
		})
	})
})

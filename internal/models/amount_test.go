package models

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestModels(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Models Suite")
}

var _ = Describe("Amount", func() {
	type wrapper struct {
		Value *Amount `json:"value"`
	}

	var (
		input string
		w     wrapper
		err   error
	)

	JustBeforeEach(func() {
		w = wrapper{}
		err = json.Unmarshal([]byte(input), &w)
	})

	When("the value is a plain number", func() {
		BeforeEach(func() {
			input = `{"value": 425.50}`
		})

		It("parses it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Value).To(HaveValue(Equal(Amount(425.50))))
		})
	})

	When("the value is a string with a thousands separator", func() {
		BeforeEach(func() {
			input = `{"value": "1,234.50"}`
		})

		It("strips the separator and parses", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Value).To(HaveValue(Equal(Amount(1234.50))))
		})
	})

	When("the value is null", func() {
		BeforeEach(func() {
			input = `{"value": null}`
		})

		It("stays nil", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Value).To(BeNil())
		})
	})

	When("the value is an empty string", func() {
		BeforeEach(func() {
			input = `{"value": ""}`
		})

		It("is treated as absent", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Value).To(HaveValue(Equal(Amount(0))))
		})
	})

	When("the value is a non-numeric string", func() {
		BeforeEach(func() {
			input = `{"value": "abc"}`
		})

		It("fails the unmarshal", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

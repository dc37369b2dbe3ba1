package analysis

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("stripMarkdown", func() {
	It("should remove emphasis markers", func() {
		Expect(stripMarkdown("**Ibuprofen** is an *NSAID*")).To(Equal("Ibuprofen is an NSAID"))
	})

	It("should replace links with their labels", func() {
		Expect(stripMarkdown("See [drugs.com](https://www.drugs.com/ibuprofen.html) for details")).
			To(Equal("See drugs.com for details"))
	})

	It("should remove raw URLs", func() {
		Expect(stripMarkdown("More at https://www.drugs.com/ibuprofen.html today")).
			To(Equal("More at today"))
	})

	It("should remove backticks", func() {
		Expect(stripMarkdown("imprint `I-2` visible")).To(Equal("imprint I-2 visible"))
	})

	It("should be idempotent on already-clean text", func() {
		clean := stripMarkdown("**Ibuprofen** at [x](y) via https://a.b c")
		Expect(stripMarkdown(clean)).To(Equal(clean))
	})

	It("should leave plain text untouched", func() {
		Expect(stripMarkdown("White round tablet")).To(Equal("White round tablet"))
	})
})

var _ = Describe("Normalize", func() {
	var d *Detection

	JustBeforeEach(func() {
		Normalize(d)
	})

	When("fields carry placeholder values", func() {
		BeforeEach(func() {
			d = &Detection{
				Name:        "Ibuprofen",
				GenericName: "N/A",
				BrandName:   "na",
				DrugClass:   "Unknown",
				Confidence:  0.8,
				Imprint:     "none",
				Usage:       "",
				Warnings:    []string{"Take with food"},
			}
		})

		It("should replace the generic name with Unconfirmed", func() {
			Expect(d.GenericName).To(Equal("Unconfirmed"))
		})

		It("should replace the brand name with Unconfirmed", func() {
			Expect(d.BrandName).To(Equal("Unconfirmed"))
		})

		It("should replace the drug class with Unconfirmed", func() {
			Expect(d.DrugClass).To(Equal("Unconfirmed"))
		})

		It("should replace the imprint with its default", func() {
			Expect(d.Imprint).To(Equal("No visible imprint"))
		})

		It("should replace the usage with the explanatory fallback", func() {
			Expect(d.Usage).To(Equal(defaultUsage))
		})

		It("should keep the supplied warnings", func() {
			Expect(d.Warnings).To(ConsistOf("Take with food"))
		})
	})

	When("a placeholder appears inside a longer value", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", DrugClass: "Nonsteroidal anti-inflammatory", Confidence: 0.8}
		})

		It("should not treat it as a placeholder", func() {
			Expect(d.DrugClass).To(Equal("Nonsteroidal anti-inflammatory"))
		})
	})

	When("warnings are empty", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", Confidence: 0.8}
		})

		It("should substitute the two standard warnings", func() {
			Expect(d.Warnings).To(HaveLen(2))
			Expect(d.Warnings).To(Equal(standardWarnings))
		})
	})

	When("warnings contain only blank entries", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", Confidence: 0.8, Warnings: []string{"", "  "}}
		})

		It("should substitute the two standard warnings", func() {
			Expect(d.Warnings).To(HaveLen(2))
		})
	})

	When("fields carry markdown", func() {
		BeforeEach(func() {
			d = &Detection{
				Name:        "**Ibuprofen**",
				Description: "An *NSAID*, see [drugs.com](https://drugs.com)",
				Confidence:  0.8,
			}
		})

		It("should strip the markdown from every free-text field", func() {
			Expect(d.Name).To(Equal("Ibuprofen"))
			Expect(d.Description).To(Equal("An NSAID, see drugs.com"))
		})
	})

	When("confidence is out of range", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", Confidence: 1.4}
		})

		It("should clamp to 1", func() {
			Expect(d.Confidence).To(Equal(1.0))
		})
	})

	When("confidence is negative", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", Confidence: -0.2}
		})

		It("should clamp to 0", func() {
			Expect(d.Confidence).To(Equal(0.0))
		})
	})

	When("confidence is NaN", func() {
		BeforeEach(func() {
			d = &Detection{Name: "Ibuprofen", Confidence: math.NaN()}
		})

		It("should map to 0.35", func() {
			Expect(d.Confidence).To(Equal(0.35))
		})
	})

	When("the record carries the non-pill name", func() {
		BeforeEach(func() {
			d = &Detection{
				Name:        NonPillName,
				GenericName: "N/A",
				DrugClass:   "N/A",
				Imprint:     "",
				Confidence:  0.9,
			}
		})

		It("should pass the fields through unchanged", func() {
			Expect(d.GenericName).To(Equal("N/A"))
			Expect(d.DrugClass).To(Equal("N/A"))
			Expect(d.Imprint).To(Equal(""))
		})

		It("should leave the warnings empty", func() {
			Expect(d.Warnings).To(BeEmpty())
		})

		It("should still clamp the confidence", func() {
			Expect(d.Confidence).To(Equal(0.9))
		})
	})
})

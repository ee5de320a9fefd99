package timeline

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Section", func() {
	It("should hold a constant scalar", func() {
		s, err := NewSection(2, 5, 3)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.IsPolynomial()).To(BeFalse())
		Expect(s.Value(2)).To(Equal([]float64{3}))
		Expect(s.Value(4.9)).To(Equal([]float64{3}))
		Expect(s.Coefficients()).To(Equal([]float64{3}))
	})

	It("should hold a constant vector", func() {
		s, err := NewSection(0, 1, []float64{0.5, 0.5, 0})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Value(0.5)).To(Equal([]float64{0.5, 0.5, 0}))
	})

	It("should not leak its coefficients", func() {
		s, _ := NewSection(0, 1, []float64{1, 2})

		c := s.Coefficients()
		c[0] = 42

		Expect(s.Coefficients()).To(Equal([]float64{1, 2}))
	})

	It("should evaluate a polynomial in section-local time", func() {
		s, err := NewPolynomialSection(2, 6, []float64{1, 2, 0, 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.IsPolynomial()).To(BeTrue())
		Expect(s.Value(2)).To(Equal([]float64{1}))
		Expect(s.Value(3)).To(Equal([]float64{4}))
		Expect(s.Value(4)).To(Equal([]float64{13}))
	})

	It("should pad polynomial coefficients", func() {
		s, err := NewPolynomialSection(0, 1, 7)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Coefficients()).To(Equal([]float64{7, 0, 0, 0}))
		Expect(s.Value(0.3)).To(Equal([]float64{7}))
	})

	It("should reject too many coefficients", func() {
		_, err := NewPolynomialSection(0, 1, []float64{1, 2, 3, 4, 5})
		Expect(err).To(MatchError(ErrInvalidCoefficients))
	})

	It("should reject empty and reversed bounds", func() {
		_, err := NewSection(1, 1, 0)
		Expect(err).To(MatchError(ErrInvalidBounds))

		_, err = NewSection(2, 1, 0)
		Expect(err).To(MatchError(ErrInvalidBounds))
	})

	It("should reject non-numeric states", func() {
		_, err := NewSection(0, 1, "open")
		Expect(err).To(MatchError(ErrInvalidCoefficients))
	})
})

package timeline

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustSection(start, end float64, state any) *Section {
	s, err := NewSection(start, end, state)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Timeline", func() {
	var tl *Timeline

	BeforeEach(func() {
		tl = New()
	})

	It("should keep sections ordered regardless of insertion order", func() {
		Expect(tl.AddSection(mustSection(2, 5, 1))).To(Succeed())
		Expect(tl.AddSection(mustSection(8, 10, 3))).To(Succeed())
		Expect(tl.AddSection(mustSection(5, 8, 2))).To(Succeed())
		Expect(tl.AddSection(mustSection(0, 2, 3))).To(Succeed())

		starts := []float64{}
		for _, s := range tl.Sections() {
			starts = append(starts, s.Start)
		}
		Expect(starts).To(Equal([]float64{0, 2, 5, 8}))
		Expect(tl.NumSections()).To(Equal(4))
		Expect(tl.Start()).To(Equal(0.0))
		Expect(tl.End()).To(Equal(10.0))
		Expect(tl.Validate(0, 10)).To(Succeed())
	})

	It("should reject overlapping sections", func() {
		Expect(tl.AddSection(mustSection(2, 5, 1))).To(Succeed())

		Expect(tl.AddSection(mustSection(4, 6, 1))).To(MatchError(ErrSectionOverlap))
		Expect(tl.AddSection(mustSection(1, 3, 1))).To(MatchError(ErrSectionOverlap))
		Expect(tl.AddSection(mustSection(2, 3, 1))).To(MatchError(ErrSectionOverlap))
		Expect(tl.NumSections()).To(Equal(1))
	})

	It("should detect gaps", func() {
		Expect(tl.AddSection(mustSection(0, 2, 1))).To(Succeed())
		Expect(tl.AddSection(mustSection(3, 10, 1))).To(Succeed())

		Expect(tl.Validate(0, 10)).To(MatchError(ErrSectionGap))
	})

	It("should detect incomplete coverage", func() {
		Expect(tl.Validate(0, 10)).To(MatchError(ErrSectionGap))

		Expect(tl.AddSection(mustSection(0, 9, 1))).To(Succeed())
		Expect(tl.Validate(0, 10)).To(MatchError(ErrSectionGap))
	})

	Context("when evaluating", func() {
		BeforeEach(func() {
			Expect(tl.AddSection(mustSection(0, 2, 3))).To(Succeed())
			Expect(tl.AddSection(mustSection(2, 5, 1))).To(Succeed())
			poly, err := NewPolynomialSection(5, 10, []float64{0, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(tl.AddSection(poly)).To(Succeed())
		})

		It("should locate the containing section", func() {
			Expect(tl.Value(0)).To(Equal([]float64{3}))
			Expect(tl.Value(1.99)).To(Equal([]float64{3}))
			Expect(tl.Value(2)).To(Equal([]float64{1}))
			Expect(tl.Value(7)).To(Equal([]float64{2}))
		})

		It("should treat the timeline end as part of the last section", func() {
			Expect(tl.Value(10)).To(Equal([]float64{5}))
		})

		It("should fail outside of the timeline", func() {
			_, err := tl.Value(-1)
			Expect(err).To(MatchError(ErrOutOfRange))

			_, err = tl.Value(10.5)
			Expect(err).To(MatchError(ErrOutOfRange))
		})

		It("should return the coefficients active at a section start", func() {
			Expect(tl.Coefficients(2)).To(Equal([]float64{1}))
			Expect(tl.Coefficients(5)).To(Equal([]float64{0, 1, 0, 0}))
		})
	})
})

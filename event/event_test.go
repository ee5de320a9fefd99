package event

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/evtsched/params"
)

const (
	flowRate      = "flow_sheet.feed.flow_rate"
	outputState   = "flow_sheet.inlet.output_state"
	flowDirection = "flow_sheet.column.flow_direction"
	columnLength  = "flow_sheet.column.length"
)

func newTestTree() *params.Tree {
	tree := params.NewTree()
	Expect(tree.Register(flowRate, 0, params.Polynomial)).To(Succeed())
	Expect(tree.Register(outputState, []float64{1, 0, 0}, params.SectionDependent)).To(Succeed())
	Expect(tree.Register(flowDirection, 1, params.SectionDependent)).To(Succeed())
	Expect(tree.Register(columnLength, 0.5, params.Constant)).To(Succeed())
	return tree
}

func posInf() float64 {
	return math.Inf(1)
}

var _ = Describe("Event", func() {
	var (
		tree *params.Tree
		h    *Handler
	)

	BeforeEach(func() {
		tree = newTestTree()
		h = MakeBuilder().WithParameterStore(tree).Build()
	})

	Context("when created", func() {
		It("should write its state through to the store", func() {
			e, err := h.AddEvent("load", flowRate, 2, 1)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.State()).To(Equal(2.0))
			Expect(tree.Get(flowRate)).To(Equal(2.0))
			Expect(e.ID()).NotTo(BeEmpty())
			Expect(e.ParameterSequence()).To(Equal([]string{"flow_sheet", "feed", "flow_rate"}))
			Expect(e.Performer()).To(Equal("flow_sheet.feed"))
			Expect(e.ComponentIndex()).To(Equal(NoComponentIndex))
		})

		It("should reject unknown parameters", func() {
			_, err := h.AddEvent("bad", "flow_sheet.feed.unknown", 1, 0)
			Expect(err).To(MatchError(ErrInvalidParameter))
		})

		It("should reject parameters that are not section dependent", func() {
			_, err := h.AddEvent("bad", columnLength, 1, 0)
			Expect(err).To(MatchError(ErrInvalidParameter))
		})

		It("should reject malformed paths", func() {
			_, err := h.AddEvent("bad", "flow_sheet..feed", 1, 0)
			Expect(err).To(MatchError(ErrInvalidParameter))
		})

		It("should reject component indices beyond the sequence", func() {
			_, err := h.AddEvent("bad", outputState, 1, 0, WithComponentIndex(3))
			Expect(err).To(MatchError(ErrIndexOutOfRange))

			_, err = h.AddEvent("bad", outputState, 1, 0, WithComponentIndex(-2))
			Expect(err).To(MatchError(ErrIndexOutOfRange))
		})

		It("should reject component indices on scalars", func() {
			_, err := h.AddEvent("bad", flowRate, 1, 0, WithComponentIndex(0))
			Expect(err).To(MatchError(ErrIndexOutOfRange))
		})

		It("should reject states the store refuses and leave the store unchanged", func() {
			_, err := h.AddEvent("bad", outputState, []float64{1, 0}, 0)
			Expect(err).To(MatchError(ErrInvalidState))
			Expect(tree.Get(outputState)).To(Equal([]float64{1, 0, 0}))

			_, ok := h.Lookup("bad")
			Expect(ok).To(BeFalse())
		})
	})

	Context("with a component index", func() {
		It("should write a single entry", func() {
			e, err := h.AddEvent("open", outputState, 0.5, 0, WithComponentIndex(1))
			Expect(err).NotTo(HaveOccurred())

			Expect(e.State()).To(Equal([]float64{1, 0.5, 0}))
			Expect(tree.Get(outputState)).To(Equal([]float64{1, 0.5, 0}))
		})

		It("should expose only the written entry as its state parameter", func() {
			e, _ := h.AddEvent("open", outputState, 0.5, 0, WithComponentIndex(1))

			p := e.Parameters()
			Expect(p["state"]).To(Equal(0.5))

			Expect(e.SetParameters(p)).To(Succeed())
			Expect(e.State()).To(Equal([]float64{1, 0.5, 0}))
		})

		It("should reject sequence states", func() {
			_, err := h.AddEvent("open", outputState, []float64{1}, 0, WithComponentIndex(1))
			Expect(err).To(MatchError(ErrInvalidState))
		})
	})

	Context("when setting the state", func() {
		It("should read the value back from the store", func() {
			e, _ := h.AddEvent("switch", outputState, []float64{0, 1, 0}, 0)

			Expect(e.SetState([]int{0, 0, 1})).To(Succeed())

			Expect(e.State()).To(Equal([]float64{0, 0, 1}))
			Expect(tree.Get(outputState)).To(Equal([]float64{0, 0, 1}))
		})

		It("should keep the previous state on failure", func() {
			e, _ := h.AddEvent("switch", outputState, []float64{0, 1, 0}, 0)

			Expect(e.SetState("closed")).To(MatchError(ErrInvalidState))

			Expect(e.State()).To(Equal([]float64{0, 1, 0}))
		})
	})

	Context("when resolving time", func() {
		It("should reduce independent times modulo the cycle time", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 25)
			Expect(e.Time()).To(Equal(5.0))
			Expect(e.StoredTime()).To(Equal(25.0))

			Expect(e.SetTime(-1)).To(Succeed())
			Expect(e.Time()).To(Equal(9.0))
		})

		It("should reject non-finite times", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 1)
			Expect(e.SetTime(posInf())).To(MatchError(ErrInvalidParameter))
			Expect(e.Time()).To(Equal(1.0))
		})

		It("should follow its dependencies", func() {
			x, _ := h.AddEvent("x", flowRate, 1, 7)
			y, _ := h.AddEvent("y", flowRate, 2, 3)
			d, _ := h.AddEvent("d", flowDirection, -1, 0)

			Expect(d.addDependency(x, 1)).To(Succeed())
			Expect(d.addDependency(y, -1)).To(Succeed())

			Expect(d.IsIndependent()).To(BeFalse())
			Expect(d.Time()).To(Equal(4.0))

			Expect(x.SetTime(2)).To(Succeed())
			Expect(d.Time()).To(Equal(9.0))
		})

		It("should resolve chains lazily", func() {
			a, _ := h.AddEvent("a", flowRate, 1, 3)
			b, _ := h.AddEvent("b", flowRate, 2, 0)
			c, _ := h.AddEvent("c", flowDirection, 1, 0)
			Expect(b.addDependency(a, 2)).To(Succeed())
			Expect(c.addDependency(b, 1)).To(Succeed())

			Expect(c.Time()).To(Equal(6.0))

			Expect(a.SetTime(4)).To(Succeed())
			Expect(c.Time()).To(Equal(8.0))

			Expect(h.SetCycleTime(5)).To(Succeed())
			Expect(c.Time()).To(Equal(3.0))
		})

		It("should not allow setting the time of a dependent event", func() {
			x, _ := h.AddEvent("x", flowRate, 1, 4)
			d, _ := h.AddEvent("d", flowDirection, 1, 1)
			Expect(d.addDependency(x, 1)).To(Succeed())

			err := d.SetTime(2)

			Expect(err).To(MatchError(ErrCannotSetDependentTime))
			Expect(d.Time()).To(Equal(4.0))
		})
	})

	Context("when managing dependencies", func() {
		var a, b, c *Event

		BeforeEach(func() {
			a, _ = h.AddEvent("a", flowRate, 1, 1)
			b, _ = h.AddEvent("b", flowRate, 2, 2)
			c, _ = h.AddEvent("c", flowRate, 3, 3)
		})

		It("should reject duplicated dependencies", func() {
			Expect(b.addDependency(a, 1)).To(Succeed())
			Expect(b.addDependency(a, -1)).To(MatchError(ErrDuplicateDependency))
			Expect(b.Factors()).To(Equal([]float64{1}))
		})

		It("should reject self dependencies", func() {
			Expect(a.addDependency(a, 1)).To(MatchError(ErrCyclicDependency))
		})

		It("should reject cycles", func() {
			Expect(b.addDependency(a, 1)).To(Succeed())
			Expect(c.addDependency(b, 1)).To(Succeed())

			err := a.addDependency(c, 1)

			Expect(err).To(MatchError(ErrCyclicDependency))
			Expect(err.Error()).To(ContainSubstring("a -> c -> b -> a"))
			Expect(a.IsIndependent()).To(BeTrue())
		})

		It("should reject dependencies owned by another handler", func() {
			other := MakeBuilder().WithParameterStore(newTestTree()).Build()
			x, _ := other.AddEvent("x", flowRate, 1, 3)

			Expect(a.addDependency(x, 1)).To(MatchError(ErrNotFound))
			Expect(a.IsIndependent()).To(BeTrue())
			Expect(other.RemoveEvent("x")).To(Succeed())
			Expect(a.Time()).To(Equal(1.0))
		})

		It("should reject non-finite factors", func() {
			Expect(b.addDependency(a, posInf())).To(MatchError(ErrInvalidParameter))
		})

		It("should remove existing dependencies", func() {
			Expect(c.addDependency(a, 1)).To(Succeed())
			Expect(c.addDependency(b, -1)).To(Succeed())

			Expect(c.removeDependency(a)).To(Succeed())

			Expect(c.Dependencies()).To(Equal([]Scheduled{b}))
			Expect(c.Factors()).To(Equal([]float64{-1}))
		})

		It("should fail to remove missing dependencies", func() {
			Expect(c.addDependency(a, 1)).To(Succeed())

			Expect(c.removeDependency(b)).To(MatchError(ErrDependencyNotFound))
			Expect(c.Dependencies()).To(HaveLen(1))
		})

		It("should become independent again with its stored time", func() {
			Expect(c.addDependency(a, 1)).To(Succeed())
			Expect(c.Time()).To(Equal(1.0))

			Expect(c.removeDependency(a)).To(Succeed())
			Expect(c.Time()).To(Equal(3.0))
		})
	})

	Context("with entity parameters", func() {
		It("should expose time and state", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 12)

			Expect(e.Parameters()).To(Equal(map[string]any{"time": 12.0, "state": 1.0}))
		})

		It("should set time and state together", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 1)

			Expect(e.SetParameters(map[string]any{"time": 3, "state": 4})).To(Succeed())

			Expect(e.Time()).To(Equal(3.0))
			Expect(e.State()).To(Equal(4.0))
		})

		It("should reject unknown sub-parameters without changes", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 1)

			err := e.SetParameters(map[string]any{"time": 3, "speed": 4})

			Expect(err).To(MatchError(ErrInvalidParameter))
			Expect(e.Time()).To(Equal(1.0))
		})

		It("should not change the time when the state fails", func() {
			e, _ := h.AddEvent("a", flowRate, 1, 1)

			err := e.SetParameters(map[string]any{"time": 3, "state": []float64{1, 2}})

			Expect(err).To(MatchError(ErrInvalidState))
			Expect(e.Time()).To(Equal(1.0))
		})
	})

	It("should print like a record", func() {
		e, _ := h.AddEvent("a", flowRate, 1, 2)
		Expect(e.String()).To(Equal(
			"Event(name=a, parameter_path=flow_sheet.feed.flow_rate, state=1, time=2)"))
	})
})

var _ = Describe("Event with a mocked store", func() {
	var (
		mockCtrl *gomock.Controller
		store    *MockParameterStore
		h        *Handler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockParameterStore(mockCtrl)
		h = MakeBuilder().WithParameterStore(store).Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should store the value the store reports, not the value given", func() {
		store.EXPECT().IsSectionDependent("unit.q").Return(true)
		store.EXPECT().Set("unit.q", 1.25).Return(nil)
		store.EXPECT().Get("unit.q").Return(1.0, nil)

		e, err := h.AddEvent("a", "unit.q", 1.25, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(e.State()).To(Equal(1.0))
	})

	It("should wrap store failures as invalid state", func() {
		store.EXPECT().IsSectionDependent("unit.q").Return(true)
		store.EXPECT().Set("unit.q", 1.0).Return(errors.New("read only"))

		_, err := h.AddEvent("a", "unit.q", 1.0, 0)

		Expect(err).To(MatchError(ErrInvalidState))
		Expect(err.Error()).To(ContainSubstring("read only"))
	})
})

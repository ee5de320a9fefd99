package event

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("LogHook", func() {
	var (
		buf *bytes.Buffer
		h   *Handler
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger := zerolog.New(buf).Level(zerolog.InfoLevel)
		h = MakeBuilder().
			WithParameterStore(newTestTree()).
			WithHook(NewLogHook(logger)).
			Build()
	})

	It("should log additions at info level", func() {
		_, _ = h.AddEvent("a", flowRate, 1, 2)

		Expect(buf.String()).To(ContainSubstring(`"level":"info"`))
		Expect(buf.String()).To(ContainSubstring(`"pos":"EventAdded"`))
		Expect(buf.String()).To(ContainSubstring(`"event":"a"`))
		Expect(buf.String()).To(ContainSubstring(`"parameter":"flow_sheet.feed.flow_rate"`))
	})

	It("should log durations", func() {
		_, _ = h.AddEvent("a", flowRate, 1, 2)
		_, _ = h.AddEvent("b", flowRate, 0, 4)
		buf.Reset()

		_, _ = h.AddDuration("switch", "a", "b", 2)

		Expect(buf.String()).To(ContainSubstring(`"duration":"switch"`))
		Expect(buf.String()).To(ContainSubstring(`"start":"a"`))
	})

	It("should keep other mutations at debug level", func() {
		e, _ := h.AddEvent("a", flowRate, 1, 2)
		buf.Reset()

		Expect(e.SetState(3)).To(Succeed())
		Expect(h.SetCycleTime(5)).To(Succeed())

		Expect(buf.String()).To(BeEmpty())
	})
})

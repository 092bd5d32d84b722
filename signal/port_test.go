package signal_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/rtlerr"
	"github.com/sarchlab/rhdl/signal"
)

var _ = Describe("Port", func() {
	Describe("an unconnected input", func() {
		It("reads its default value", func() {
			p := signal.NewInput("d", 8, 0x42)
			Expect(p.Read()).To(Equal(uint64(0x42)))
		})

		It("reads zero by default when no default is given", func() {
			p := signal.NewInput("d", 8, 0)
			Expect(p.Read()).To(Equal(uint64(0)))
		})

		It("accepts a poked override", func() {
			p := signal.NewInput("d", 8, 0)
			Expect(p.SetOverride(0x7F)).To(Succeed())
			Expect(p.Read()).To(Equal(uint64(0x7F)))
		})

		It("rejects an override that exceeds its width", func() {
			p := signal.NewInput("d", 4, 0)
			err := p.SetOverride(0x10)
			Expect(err).To(HaveOccurred())
			var wv *rtlerr.WidthViolation
			Expect(errors.As(err, &wv)).To(BeTrue())
		})
	})

	Describe("a connected input", func() {
		It("observes the source wire, ignoring any override", func() {
			src := signal.NewWire("src", 8)
			src.Set(9)

			p := signal.NewInput("d", 8, 0)
			Expect(p.SetOverride(1)).To(Succeed())
			p.Connect(src)
			Expect(p.Read()).To(Equal(uint64(9)))

			src.Set(200)
			Expect(p.Read()).To(Equal(uint64(200)))
		})

		It("allows fan-out: many inputs observing one source", func() {
			src := signal.NewWire("src", 4)
			src.Set(5)

			a := signal.NewInput("a", 4, 0)
			b := signal.NewInput("b", 4, 0)
			a.Connect(src)
			b.Connect(src)

			Expect(a.Read()).To(Equal(uint64(5)))
			Expect(b.Read()).To(Equal(uint64(5)))
		})

		It("replaces its source on reconnection", func() {
			src1 := signal.NewWire("s1", 4)
			src1.Set(1)
			src2 := signal.NewWire("s2", 4)
			src2.Set(2)

			p := signal.NewInput("p", 4, 0)
			p.Connect(src1)
			p.Connect(src2)

			Expect(p.Read()).To(Equal(uint64(2)))
		})

		It("falls back to override/default after Disconnect", func() {
			src := signal.NewWire("s", 4)
			src.Set(9)

			p := signal.NewInput("p", 4, 3)
			p.Connect(src)
			p.Disconnect()

			Expect(p.Read()).To(Equal(uint64(3)))
		})
	})

	Describe("an output port", func() {
		It("drives its own wire", func() {
			p := signal.NewOutput("o", 8)
			p.Write(0x55)
			Expect(p.Read()).To(Equal(uint64(0x55)))
			Expect(p.Wire().Get()).To(Equal(uint64(0x55)))
		})

		It("panics if Write is called on an input port", func() {
			p := signal.NewInput("i", 4, 0)
			Expect(func() { p.Write(1) }).To(Panic())
		})
	})
})

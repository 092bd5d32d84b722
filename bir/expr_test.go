package bir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/bir"
)

var _ = Describe("width inference", func() {
	a := bir.NetRef("a", 8)
	b := bir.NetRef("b", 8)

	It("widens add/sub by one bit", func() {
		Expect(bir.Binary(bir.OpAdd, a, b).Width).To(Equal(uint(9)))
		Expect(bir.Binary(bir.OpSub, a, b).Width).To(Equal(uint(9)))
	})

	It("sums widths for multiply", func() {
		Expect(bir.Binary(bir.OpMul, a, b).Width).To(Equal(uint(16)))
	})

	It("keeps the left operand's width for div/mod/bitwise/shift", func() {
		Expect(bir.Binary(bir.OpDiv, a, b).Width).To(Equal(uint(8)))
		Expect(bir.Binary(bir.OpMod, a, b).Width).To(Equal(uint(8)))
		Expect(bir.Binary(bir.OpAnd, a, b).Width).To(Equal(uint(8)))
		Expect(bir.Binary(bir.OpShl, a, b).Width).To(Equal(uint(8)))
	})

	It("fixes compare width at 1", func() {
		Expect(bir.Binary(bir.OpLt, a, b).Width).To(Equal(uint(1)))
	})

	It("sums widths for concat and multiplies for replicate", func() {
		Expect(bir.Concat(a, b).Width).To(Equal(uint(16)))
		Expect(bir.Replicate(a, 3).Width).To(Equal(uint(24)))
	})

	It("computes slice width as hi-lo+1", func() {
		Expect(bir.Slice(a, 5, 2).Width).To(Equal(uint(4)))
	})

	It("takes the max width for mux", func() {
		wide := bir.NetRef("w", 16)
		Expect(bir.Mux(bir.NetRef("sel", 1), a, wide).Width).To(Equal(uint(16)))
	})

	It("infers the minimum fitting width for a bare literal", func() {
		Expect(bir.MinLit(0).Width).To(Equal(uint(1)))
		Expect(bir.MinLit(1).Width).To(Equal(uint(1)))
		Expect(bir.MinLit(2).Width).To(Equal(uint(2)))
		Expect(bir.MinLit(255).Width).To(Equal(uint(8)))
		Expect(bir.MinLit(256).Width).To(Equal(uint(9)))
	})
})

var _ = Describe("Eval", func() {
	env := bir.MapEnv{"a": 0xA5, "b": 0x3C}

	It("evaluates arithmetic with the two's-complement add rule", func() {
		e := bir.Binary(bir.OpAdd, bir.NetRef("a", 8), bir.NetRef("b", 8))
		Expect(e.Eval(env)).To(Equal(uint64(0xA5 + 0x3C)))
	})

	It("evaluates slices", func() {
		e := bir.Slice(bir.NetRef("a", 8), 7, 4)
		Expect(e.Eval(env)).To(Equal(uint64(0xA)))
	})

	It("evaluates concat MSB-first", func() {
		e := bir.Concat(bir.Lit(4, 0xA), bir.Lit(4, 0x5))
		Expect(e.Eval(nil)).To(Equal(uint64(0xA5)))
	})

	It("evaluates replicate", func() {
		e := bir.Replicate(bir.Lit(2, 0b10), 3)
		Expect(e.Eval(nil)).To(Equal(uint64(0b101010)))
	})

	It("evaluates reductions", func() {
		Expect(bir.ReduceOr(bir.Lit(4, 0)).Eval(nil)).To(Equal(uint64(0)))
		Expect(bir.ReduceOr(bir.Lit(4, 1)).Eval(nil)).To(Equal(uint64(1)))
		Expect(bir.ReduceAnd(bir.Lit(4, 0xF)).Eval(nil)).To(Equal(uint64(1)))
		Expect(bir.ReduceAnd(bir.Lit(4, 0x7)).Eval(nil)).To(Equal(uint64(0)))
		Expect(bir.ReduceXor(bir.Lit(4, 0x3)).Eval(nil)).To(Equal(uint64(0)))
		Expect(bir.ReduceXor(bir.Lit(4, 0x7)).Eval(nil)).To(Equal(uint64(1)))
	})

	It("evaluates mux as sel ? ifOne : ifZero", func() {
		e := bir.Mux(bir.NetRef("sel", 1), bir.Lit(4, 1), bir.Lit(4, 2))
		Expect(e.Eval(bir.MapEnv{"sel": 0})).To(Equal(uint64(1)))
		Expect(e.Eval(bir.MapEnv{"sel": 1})).To(Equal(uint64(2)))
	})

	It("evaluates case-select with first-match-wins and default fallback", func() {
		e := bir.CaseSelect(bir.NetRef("sel", 2), []bir.CaseEntry{
			{Key: 0, Value: bir.Lit(4, 0xA)},
			{Key: 1, Value: bir.Lit(4, 0xB)},
		}, bir.Lit(4, 0xF))
		Expect(e.Eval(bir.MapEnv{"sel": 0})).To(Equal(uint64(0xA)))
		Expect(e.Eval(bir.MapEnv{"sel": 1})).To(Equal(uint64(0xB)))
		Expect(e.Eval(bir.MapEnv{"sel": 2})).To(Equal(uint64(0xF)))
	})

	It("arithmetic-right-shifts sign-extending from the operand's own MSB", func() {
		e := bir.Binary(bir.OpSar, bir.NetRef("n", 4), bir.Lit(2, 1))
		Expect(e.Eval(bir.MapEnv{"n": 0b1000})).To(Equal(uint64(0b1100)))
	})

	It("rotates left and right", func() {
		rol := bir.Binary(bir.OpRol, bir.NetRef("n", 4), bir.Lit(2, 1))
		Expect(rol.Eval(bir.MapEnv{"n": 0b1001})).To(Equal(uint64(0b0011)))
		ror := bir.Binary(bir.OpRor, bir.NetRef("n", 4), bir.Lit(2, 1))
		Expect(ror.Eval(bir.MapEnv{"n": 0b1001})).To(Equal(uint64(0b1100)))
	})
})

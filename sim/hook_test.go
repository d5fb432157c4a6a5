package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		domain *HookableBase
		calls  []HookCtx
	)

	BeforeEach(func() {
		domain = &HookableBase{}
		calls = nil
	})

	It("should start without hooks", func() {
		Expect(domain.NumHooks()).To(Equal(0))
	})

	It("should invoke hooks in registration order", func() {
		var order []int

		domain.AcceptHook(HookFunc(func(ctx HookCtx) {
			order = append(order, 1)
			calls = append(calls, ctx)
		}))
		domain.AcceptHook(HookFunc(func(ctx HookCtx) {
			order = append(order, 2)
		}))

		domain.InvokeHook(HookCtx{
			Domain: domain,
			Pos:    HookPosAfterStep,
			Item:   uint64(42),
		})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]int{1, 2}))
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].Pos).To(BeIdenticalTo(HookPosAfterStep))
		Expect(calls[0].Item).To(Equal(uint64(42)))
	})
})

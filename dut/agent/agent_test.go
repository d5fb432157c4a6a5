package agent_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/dut/agent"
	"github.com/scarv/xcsim/mem"
	"github.com/scarv/xcsim/sim"
)

const (
	passAddress = 0x1C
	failAddress = 0x10
)

// edge drives one full clock cycle and serves the bus on the rising edge.
func edge(a *agent.Agent, t *axi.Transactor) {
	a.SetClock(false)
	a.Eval()
	a.SetClock(true)
	a.Eval()
	Expect(t.Tick()).To(Succeed())
}

func runUntilFinalFetch(a *agent.Agent, t *axi.Transactor) uint32 {
	for i := 0; i < 20000; i++ {
		edge(a, t)

		ar := a.Port(0).AR
		if ar.Valid && (ar.Addr == passAddress || ar.Addr == failAddress) {
			return ar.Addr
		}
	}

	Fail("the agent never fetched the pass or the fail address")

	return 0
}

var _ = Describe("Agent", func() {
	var (
		storage    *mem.Storage
		output     *bytes.Buffer
		transactor *axi.Transactor
		builder    agent.Builder
	)

	attach := func(a *agent.Agent) {
		for i := 0; i < a.NumPorts(); i++ {
			transactor.AttachPort(a.PortName(i), a.Port(i))
		}
		a.SetResetN(true)
	}

	BeforeEach(func() {
		storage = mem.NewStorage()
		output = new(bytes.Buffer)
		transactor = axi.MakeBuilder().
			WithStorage(storage).
			WithOutput(output).
			Build("Bus")

		for addr := uint32(0x2000); addr < 0x2100; addr += 4 {
			storage.WriteWord(addr, addr*7, 0xF)
		}

		builder = agent.MakeBuilder().
			WithSeed(3).
			WithImage(storage).
			WithFetches(8).
			WithReads(50).
			WithWrites(50)
	})

	It("should expose an instruction and a data port", func() {
		a := builder.Build("Agent")

		Expect(a.NumPorts()).To(Equal(2))
		Expect(a.PortName(0)).To(Equal("instr"))
		Expect(a.PortName(1)).To(Equal("data"))
		Expect(a.Port(1).R.Ready).To(BeTrue())
		Expect(a.Port(1).B.Ready).To(BeTrue())
	})

	It("should pass when memory behaves", func() {
		a := builder.Build("Agent")
		attach(a)

		Expect(runUntilFinalFetch(a, transactor)).To(Equal(uint32(passAddress)))
		Expect(a.Done()).To(BeTrue())
		Expect(a.Stats()).To(Equal(agent.Stats{
			Fetches: 8, Reads: 50, Writes: 50,
		}))
		Expect(output.String()).To(Equal(
			"Agent: 8 fetches, 50 reads, 50 writes, 0 mismatches\n"))
	})

	It("should produce the same traffic for the same seed", func() {
		a := builder.Build("Agent")
		attach(a)
		runUntilFinalFetch(a, transactor)
		first := storage.Read(0x10000, 0x10000)

		storage2 := mem.NewStorage()
		transactor = axi.MakeBuilder().WithStorage(storage2).Build("Bus")
		b := builder.WithImage(nil).Build("Agent")
		attach(b)
		runUntilFinalFetch(b, transactor)

		Expect(storage2.Read(0x10000, 0x10000)).To(Equal(first))
	})

	It("should fail when memory corrupts the data", func() {
		transactor.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos != axi.HookPosWriteCommitted {
				return
			}

			txn := ctx.Item.(axi.Transaction)
			if txn.Addr < 0x10000 {
				return
			}

			storage.WriteWord(txn.Addr, ^storage.ReadWord(txn.Addr), 0xF)
		}))

		a := builder.WithReads(20).WithWrites(20).Build("Agent")
		attach(a)

		Expect(runUntilFinalFetch(a, transactor)).To(Equal(uint32(failAddress)))
		Expect(a.Stats().Mismatches).To(BeNumerically(">", 0))
		Expect(output.String()).NotTo(ContainSubstring(" 0 mismatches"))
	})

	It("should check instruction fetches against the image", func() {
		expected := mem.NewStorage()
		for addr := uint32(0x2000); addr < 0x2010; addr += 4 {
			expected.WriteWord(addr, 0xFFFFFFFF, 0xF)
		}

		a := builder.
			WithImage(expected).
			WithFetches(4).
			WithReads(10).
			WithWrites(0).
			Build("Agent")
		attach(a)

		Expect(runUntilFinalFetch(a, transactor)).To(Equal(uint32(failAddress)))
		Expect(a.Stats()).To(Equal(agent.Stats{Fetches: 4, Mismatches: 4}))
	})

	It("should only act on rising edges", func() {
		a := builder.Build("Agent")
		attach(a)

		a.SetClock(true)
		a.Eval()
		Expect(a.Port(0).AR.Valid).To(BeTrue())
		Expect(a.Port(0).AR.Addr).To(Equal(uint32(0x2000)))

		Expect(transactor.Tick()).To(Succeed())
		a.Eval()
		Expect(a.Port(0).AR.Addr).To(Equal(uint32(0x2000)))

		a.SetClock(false)
		a.Eval()
		a.SetClock(true)
		a.Eval()
		Expect(a.Port(0).AR.Addr).To(Equal(uint32(0x2004)))
	})

	It("should deassert its requests while in reset", func() {
		a := builder.Build("Agent")
		attach(a)

		for i := 0; i < 10; i++ {
			edge(a, transactor)
		}

		a.SetResetN(false)
		a.SetClock(false)
		a.Eval()
		a.SetClock(true)
		a.Eval()

		for i := 0; i < a.NumPorts(); i++ {
			sig := a.Port(i)
			Expect(sig.AR.Valid).To(BeFalse())
			Expect(sig.AW.Valid).To(BeFalse())
			Expect(sig.W.Valid).To(BeFalse())
		}
		Expect(a.Stats()).To(Equal(agent.Stats{}))
	})

	It("should refuse a data window that covers a device", func() {
		Expect(func() {
			builder.WithDataWindow(0x1000, 0x100).Build("Agent")
		}).To(Panic())
	})
})

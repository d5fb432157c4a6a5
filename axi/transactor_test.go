package axi_test

import (
	"bytes"
	"errors"
	"log"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/mem"
)

type stepCounter struct {
	step uint64
}

func (c *stepCounter) CurrentStep() uint64 {
	return c.step
}

var _ = Describe("Transactor", func() {
	var (
		storage    *mem.Storage
		output     *bytes.Buffer
		transactor *axi.Transactor
		instr      *axi.PortSignals
		data       *axi.PortSignals
	)

	BeforeEach(func() {
		storage = mem.NewStorage()
		output = new(bytes.Buffer)
		transactor = axi.MakeBuilder().
			WithStorage(storage).
			WithTrapAddress(0x1000).
			WithOutput(output).
			Build("Bus")

		instr = new(axi.PortSignals)
		data = new(axi.PortSignals)
		transactor.AttachPort("instr", instr)
		transactor.AttachPort("data", data)
	})

	tick := func() {
		Expect(transactor.Tick()).To(Succeed())
	}

	write := func(sig *axi.PortSignals, addr, value uint32, strb uint8) {
		sig.AW.Valid = true
		sig.AW.Addr = addr
		sig.W.Valid = true
		sig.W.Data = value
		sig.W.Strb = strb
		sig.B.Ready = true
		tick()
		sig.AW.Valid = false
		sig.W.Valid = false
	}

	read := func(sig *axi.PortSignals, addr uint32) uint32 {
		sig.AR.Valid = true
		sig.AR.Addr = addr
		sig.R.Ready = true
		tick()
		sig.AR.Valid = false
		Expect(sig.R.Valid).To(BeTrue())

		return sig.R.Data
	}

	It("should panic when a port name is reused", func() {
		Expect(func() {
			transactor.AttachPort("data", new(axi.PortSignals))
		}).To(Panic())
	})

	Context("read channels", func() {
		It("should answer a read on the edge that accepts it", func() {
			storage.Write(0, []byte{0xDE, 0xAD, 0xBE, 0xEF})

			instr.AR.Valid = true
			instr.AR.Addr = 0
			tick()

			Expect(instr.AR.Ready).To(BeTrue())
			Expect(instr.R.Valid).To(BeTrue())
			Expect(instr.R.Data).To(Equal(uint32(0xEFBEADDE)))
		})

		It("should read zero from unmapped memory", func() {
			Expect(read(data, 0x4000_0000)).To(Equal(uint32(0)))
		})

		It("should deassert ready and valid when idle", func() {
			instr.R.Ready = true
			tick()

			Expect(instr.AR.Ready).To(BeFalse())
			Expect(instr.R.Valid).To(BeFalse())
		})

		It("should hold a response until the master takes it", func() {
			storage.WriteWord(0x10, 0x11111111, 0xF)
			storage.WriteWord(0x20, 0x22222222, 0xF)
			storage.WriteWord(0x30, 0x33333333, 0xF)

			instr.R.Ready = false
			for _, addr := range []uint32{0x10, 0x20, 0x30} {
				instr.AR.Valid = true
				instr.AR.Addr = addr
				tick()

				Expect(instr.AR.Ready).To(BeTrue())
				Expect(instr.R.Valid).To(BeTrue())
				Expect(instr.R.Data).To(Equal(uint32(0x11111111)))
			}

			instr.AR.Valid = false
			port := transactor.Port("instr")
			Expect(port.Reads().Addresses()).To(Equal([]uint32{0x20, 0x30}))

			instr.R.Ready = true
			tick()
			Expect(instr.R.Data).To(Equal(uint32(0x22222222)))
			tick()
			Expect(instr.R.Data).To(Equal(uint32(0x33333333)))
			tick()
			Expect(instr.R.Valid).To(BeFalse())

			stats, _ := transactor.Stats("instr")
			Expect(stats.ReadsAccepted).To(Equal(uint64(3)))
			Expect(stats.ReadsResponded).To(Equal(uint64(3)))
			Expect(stats.ReadRspStalls).To(Equal(uint64(2)))
		})
	})

	Context("write channels", func() {
		It("should honor the byte strobe", func() {
			write(data, 0x100, 0x12345678, 0b0011)

			Expect(data.AW.Ready).To(BeTrue())
			Expect(data.W.Ready).To(BeTrue())
			Expect(data.B.Valid).To(BeTrue())
			Expect(storage.Read(0x100, 4)).To(Equal([]byte{0x78, 0x56, 0, 0}))
			Expect(storage.IsWritten(0x102)).To(BeFalse())
		})

		It("should read back the last written bytes", func() {
			rng := rand.New(rand.NewSource(7))
			shadow := make(map[uint32]byte)

			for i := 0; i < 200; i++ {
				addr := uint32(rng.Intn(16)) * 4
				value := rng.Uint32()
				strb := uint8(rng.Intn(16))

				write(data, addr, value, strb)

				for b := uint32(0); b < 4; b++ {
					if strb&(1<<b) != 0 {
						shadow[addr+b] = byte(value >> (8 * b))
					}
				}
			}

			for addr := uint32(0); addr < 64; addr += 4 {
				expected := uint32(shadow[addr]) |
					uint32(shadow[addr+1])<<8 |
					uint32(shadow[addr+2])<<16 |
					uint32(shadow[addr+3])<<24
				Expect(read(data, addr)).To(Equal(expected))
			}
		})

		It("should block new addresses while the data is missing", func() {
			data.AW.Valid = true
			data.AW.Addr = 0x200
			data.B.Ready = true
			tick()

			Expect(data.AW.Ready).To(BeTrue())

			data.AW.Addr = 0x204
			for i := 0; i < 5; i++ {
				tick()

				Expect(data.AW.Ready).To(BeFalse())
				Expect(data.B.Valid).To(BeFalse())
			}

			writes := transactor.Port("data").Writes().Requests()
			Expect(writes).To(HaveLen(1))
			Expect(writes[0].Addr).To(Equal(uint32(0x200)))
			Expect(writes[0].Complete).To(BeFalse())

			stats, _ := transactor.Stats("data")
			Expect(stats.WriteAddrStalls).To(Equal(uint64(5)))
		})

		It("should accept the data one edge after the address", func() {
			data.AW.Valid = true
			data.AW.Addr = 0x300
			data.B.Ready = true
			tick()

			data.AW.Addr = 0x304
			data.W.Valid = true
			data.W.Data = 0xCAFEBABE
			data.W.Strb = 0xF
			tick()

			Expect(data.AW.Ready).To(BeFalse())
			Expect(data.W.Ready).To(BeTrue())
			Expect(data.B.Valid).To(BeTrue())
			Expect(storage.ReadWord(0x300)).To(Equal(uint32(0xCAFEBABE)))

			data.W.Valid = false
			tick()

			Expect(data.AW.Ready).To(BeTrue())
			Expect(transactor.Port("data").Writes().TailIncomplete()).To(BeTrue())
		})

		It("should hold a write response until the master takes it", func() {
			data.B.Ready = false
			data.AW.Valid = true
			data.W.Valid = true
			data.W.Strb = 0xF

			data.AW.Addr = 0x10
			data.W.Data = 1
			tick()
			Expect(data.B.Valid).To(BeTrue())

			data.AW.Addr = 0x14
			data.W.Data = 2
			tick()

			data.AW.Valid = false
			data.W.Valid = false
			Expect(storage.ReadWord(0x14)).To(Equal(uint32(0)))
			Expect(transactor.Port("data").Writes().Len()).To(Equal(1))

			data.B.Ready = true
			tick()
			Expect(data.B.Valid).To(BeTrue())
			Expect(storage.ReadWord(0x14)).To(Equal(uint32(2)))

			tick()
			Expect(data.B.Valid).To(BeFalse())
		})

		It("should abort on data without an address", func() {
			data.W.Valid = true
			data.W.Data = 1
			data.W.Strb = 0xF

			err := transactor.Tick()

			var protoErr *axi.ProtocolError
			Expect(errors.As(err, &protoErr)).To(BeTrue())
			Expect(protoErr.Port).To(Equal("data"))
			Expect(protoErr.Channel).To(Equal(axi.ChannelWriteData))
			Expect(errors.Is(err, axi.ErrNoPendingAddress)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("port data"))
			Expect(err.Error()).To(ContainSubstring("write data channel"))
		})
	})

	Context("ports", func() {
		It("should keep the queues of the ports apart", func() {
			instr.R.Ready = false
			instr.AR.Valid = true
			instr.AR.Addr = 0x40
			data.AW.Valid = true
			data.AW.Addr = 0x80
			tick()

			Expect(transactor.Port("instr").Reads().Len()).To(Equal(0))
			Expect(transactor.Port("data").Reads().Len()).To(Equal(0))
			Expect(transactor.Port("instr").Writes().Len()).To(Equal(0))
			Expect(transactor.Port("data").Writes().Len()).To(Equal(1))

			states := transactor.PortStates()
			Expect(states).To(HaveLen(2))
			Expect(states[0].Name).To(Equal("instr"))
			Expect(states[1].PendingWrites[0].Addr).To(Equal(uint32(0x80)))
		})

		It("should forget in-flight requests on reset", func() {
			data.AW.Valid = true
			data.AW.Addr = 0x80
			instr.AR.Valid = true
			instr.R.Ready = false
			tick()
			tick()

			transactor.Reset()

			Expect(transactor.Port("data").Writes().Len()).To(Equal(0))
			Expect(transactor.Port("instr").Reads().Len()).To(Equal(0))
			Expect(instr.R.Valid).To(BeFalse())
			Expect(instr.AR.Ready).To(BeFalse())
			stats, _ := transactor.Stats("instr")
			Expect(stats).To(Equal(axi.PortStats{}))
		})

		It("should report unknown ports", func() {
			_, ok := transactor.Stats("dma")
			Expect(ok).To(BeFalse())
			Expect(transactor.Port("dma")).To(BeNil())
		})
	})

	Context("byte output device", func() {
		It("should print the top byte of trapped writes", func() {
			for _, c := range []byte("Hi\n") {
				write(data, 0x1000, uint32(c)<<24, 0b1000)
			}

			Expect(output.String()).To(Equal("Hi\n"))
			Expect(string(transactor.Trap().Output())).To(Equal("Hi\n"))
			Expect(storage.Byte(0x1003)).To(Equal(byte('\n')))
		})

		It("should ignore writes with other strobes or addresses", func() {
			write(data, 0x1000, 0x41000000, 0b1111)
			write(data, 0x1004, 0x41000000, 0b1000)
			write(data, 0x1000, 0x00000041, 0b0001)

			Expect(output.Len()).To(Equal(0))
		})

		It("should print a held write only once", func() {
			data.B.Ready = false
			data.AW.Valid = true
			data.W.Valid = true
			data.W.Strb = 0b1111

			data.AW.Addr = 0x10
			tick()

			data.AW.Addr = 0x1000
			data.W.Data = 'A' << 24
			data.W.Strb = 0b1000
			tick()

			data.AW.Valid = false
			data.W.Valid = false
			tick()
			tick()

			data.B.Ready = true
			tick()
			tick()

			Expect(output.String()).To(Equal("A"))
			stats, _ := transactor.Stats("data")
			Expect(stats.BytesOut).To(Equal(uint64(1)))
		})

		It("should print from both ports", func() {
			write(instr, 0x1000, 'x'<<24, 0b1000)
			write(data, 0x1000, 'y'<<24, 0b1000)

			Expect(output.String()).To(Equal("xy"))
		})
	})

	Context("hooks", func() {
		var clock *stepCounter

		BeforeEach(func() {
			clock = &stepCounter{}
		})

		It("should log transactions", func() {
			logBuf := new(bytes.Buffer)
			transactor.AcceptHook(
				axi.NewBusLogger(log.New(logBuf, "", 0), clock))

			clock.step = 11
			write(data, 0x100, 0x12345678, 0b0011)

			Expect(logBuf.String()).To(ContainSubstring(
				"step 11, data, AXI Write Addr Accepted, 0x00000100"))
			Expect(logBuf.String()).To(ContainSubstring(
				"AXI Write Committed, 0x00000100, 0x12345678, 0011"))
		})

		It("should measure latency", func() {
			tracer := axi.NewLatencyTracer(clock)
			transactor.AcceptHook(tracer)

			instr.R.Ready = false
			instr.AR.Valid = true
			clock.step = 1
			tick()
			clock.step = 11
			tick()
			instr.AR.Valid = false
			instr.R.Ready = true
			clock.step = 21
			tick()

			Expect(tracer.ReadLatency()).To(Equal(axi.Latency{
				Count: 2, Total: 10, Max: 10,
			}))
			Expect(tracer.ReadLatency().Average()).To(Equal(5.0))

			clock.step = 31
			write(data, 0, 0, 0xF)
			Expect(tracer.WriteLatency().Count).To(Equal(uint64(1)))
			Expect(tracer.WriteLatency().Max).To(Equal(uint64(0)))
		})

		It("should forget requests in flight on reset", func() {
			tracer := axi.NewLatencyTracer(clock)
			transactor.AcceptHook(tracer)

			instr.R.Ready = false
			instr.AR.Valid = true
			clock.step = 1
			tick()
			instr.AR.Valid = false

			transactor.Reset()

			instr.R.Ready = true
			instr.AR.Valid = true
			clock.step = 1000
			tick()

			Expect(tracer.ReadLatency()).To(Equal(axi.Latency{Count: 1}))
		})

		It("should log resets", func() {
			logBuf := new(bytes.Buffer)
			transactor.AcceptHook(
				axi.NewBusLogger(log.New(logBuf, "", 0), clock))

			clock.step = 7
			transactor.Reset()

			Expect(logBuf.String()).To(Equal("step 7, AXI Reset\n"))
		})
	})
})
